package core

import (
	"context"

	"github.com/varalys/plugpack/internal/artifacts"
	"github.com/varalys/plugpack/internal/engine"
	"github.com/varalys/plugpack/internal/exclude"
)

// Re-export selected internal types as a stable public API surface.
type Config = engine.Config
type Result = engine.Result
type Entry = engine.Entry
type BuildError = engine.BuildError
type MatchMode = exclude.Mode
type Violation = artifacts.Violation

const (
	MatchSegment   = exclude.ModeSegment
	MatchSubstring = exclude.ModeSubstring
	MatchGlob      = exclude.ModeGlob
)

// Build writes the archive described by cfg.
func Build(ctx context.Context, cfg Config) (Result, error) {
	return engine.Build(ctx, cfg)
}

// Plan reports what Build would archive without writing anything.
func Plan(ctx context.Context, cfg Config) (Result, error) {
	return engine.Plan(ctx, cfg)
}

// Verify returns the entries of the archive at path that patterns exclude.
// Entries are matched below the archive's top-level folder when it has one,
// unless flat says the archive was built without one.
func Verify(path string, mode MatchMode, patterns []string, defaults, flat bool) ([]Violation, error) {
	set, err := exclude.New(mode, patterns)
	if err != nil {
		return nil, err
	}
	m := exclude.Any{set}
	if defaults {
		m = append(m, exclude.DefaultSet())
	}
	strip := ""
	if !flat {
		entries, err := artifacts.List(path)
		if err != nil {
			return nil, err
		}
		strip = artifacts.RootFolder(entries)
	}
	return artifacts.Verify(path, m, strip)
}

// DefaultExcludes returns the built-in exclusion patterns.
func DefaultExcludes() []string { return exclude.Defaults() }
