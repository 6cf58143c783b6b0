package engine

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/varalys/plugpack/internal/exclude"
	"github.com/varalys/plugpack/internal/ignore"
)

// Config controls a single archive build.
type Config struct {
	// SourceRoot is the plugin directory to archive.
	SourceRoot string
	// OutputPath is the zip file to produce. Any existing file is replaced.
	OutputPath string
	// Exclude lists patterns interpreted according to MatchMode.
	Exclude   []string
	MatchMode exclude.Mode
	// ArchiveRootName replaces the source folder name as the top-level folder
	// inside the archive. Empty keeps the source folder name.
	ArchiveRootName string
	// Flat writes entries relative to the source root with no top-level folder.
	Flat            bool
	DefaultExcludes bool
	// IgnoreFile names a gitignore-style file inside SourceRoot. Empty disables
	// ignore-file support.
	IgnoreFile string
	// Level is the DEFLATE level, 1 (fastest) to 9 (best). 0 selects the
	// library default.
	Level    int
	DryRun   bool
	Progress func(Entry)
	// SkipPaths are files never archived even when they sit inside
	// SourceRoot, such as a build log written next to the output.
	SkipPaths []string
}

// Entry is one file written (or planned) into the archive.
type Entry struct {
	Path    string      `json:"path"`
	Rel     string      `json:"rel"`
	Size    int64       `json:"size"`
	Mode    fs.FileMode `json:"mode"`
	ModTime time.Time   `json:"mod_time"`
	Hash    string      `json:"hash,omitempty"`
}

// Result summarizes a build.
type Result struct {
	Source     string        `json:"source"`
	OutputPath string        `json:"output"`
	RootName   string        `json:"root_name,omitempty"`
	Entries    []Entry       `json:"entries"`
	Excluded   int           `json:"excluded"`
	Pruned     int           `json:"pruned"`
	Skipped    int           `json:"skipped"`
	InputBytes int64         `json:"input_bytes"`
	Bytes      int64         `json:"bytes"`
	Duration   time.Duration `json:"duration"`
	DryRun     bool          `json:"dry_run,omitempty"`
}

// plan is a validated Config with absolute paths and a compiled matcher.
type plan struct {
	cfg      Config
	root     string
	rootName string
	output   string
	matcher  exclude.Matcher
	// nameMatcher checks archive paths: unanchored exclude patterns only,
	// never the ignore file.
	nameMatcher exclude.Matcher
	ignoreRel   string
	skip        map[string]bool
}

func prepare(cfg Config) (*plan, error) {
	if strings.TrimSpace(cfg.SourceRoot) == "" {
		return nil, invalid("source", "", "source root is required")
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.OutputPath) == "" {
		return nil, invalid("output", "", "output path is required")
	}
	if cfg.Level < 0 || cfg.Level > 9 {
		return nil, invalid("level", "", "compression level %d out of range 0-9", cfg.Level)
	}
	if cfg.ArchiveRootName != "" && !validRootName(cfg.ArchiveRootName) {
		return nil, invalid("root-name", cfg.ArchiveRootName, "archive root name must be a single path segment")
	}

	abs, err := filepath.Abs(cfg.SourceRoot)
	if err != nil {
		return nil, wrap("source", cfg.SourceRoot, err)
	}
	// resolve a symlinked root so WalkDir descends into it
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if errors.Is(err, fs.ErrNotExist) {
		return nil, wrap("source", cfg.SourceRoot, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, wrap("source", cfg.SourceRoot, err)
	}
	if !st.IsDir() {
		return nil, invalid("source", cfg.SourceRoot, "not a directory")
	}

	p := &plan{cfg: cfg, root: abs}
	if !cfg.Flat {
		p.rootName = cfg.ArchiveRootName
		if p.rootName == "" {
			p.rootName = filepath.Base(abs)
		}
	}

	if cfg.OutputPath != "" {
		out, err := filepath.Abs(cfg.OutputPath)
		if err != nil {
			return nil, wrap("output", cfg.OutputPath, err)
		}
		if !cfg.DryRun {
			dir, err := os.Stat(filepath.Dir(out))
			if err != nil {
				return nil, wrap("output", filepath.Dir(out), err)
			}
			if !dir.IsDir() {
				return nil, invalid("output", filepath.Dir(out), "parent is not a directory")
			}
			if st, err := os.Stat(out); err == nil && st.IsDir() {
				return nil, invalid("output", cfg.OutputPath, "output path is a directory")
			}
		}
		p.output = canonical(out)
	}

	set, err := exclude.New(cfg.MatchMode, cfg.Exclude)
	if err != nil {
		return nil, &BuildError{Kind: KindInvalidConfig, Op: "exclude", Err: err}
	}
	matchers := exclude.Any{set}
	names := exclude.Any{exclude.MatcherFunc(set.MatchUnanchored)}
	if cfg.DefaultExcludes {
		defaults := exclude.DefaultSet()
		matchers = append(matchers, defaults)
		names = append(names, exclude.MatcherFunc(defaults.MatchUnanchored))
	}
	if cfg.IgnoreFile != "" {
		ign, err := ignore.Load(filepath.Join(abs, cfg.IgnoreFile))
		if err != nil {
			return nil, wrap("ignore-file", cfg.IgnoreFile, err)
		}
		if ign.Len() > 0 {
			matchers = append(matchers, exclude.MatcherFunc(ign.MatchEntry))
		}
		p.ignoreRel = exclude.Normalize(cfg.IgnoreFile)
	}
	p.matcher = matchers
	p.nameMatcher = names

	for _, sp := range cfg.SkipPaths {
		if sp == "" {
			continue
		}
		if p.skip == nil {
			p.skip = make(map[string]bool, len(cfg.SkipPaths))
		}
		p.skip[canonical(sp)] = true
	}
	return p, nil
}

// canonical returns an absolute path with symlinks in its directory resolved,
// the form walk compares against.
func canonical(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(name)); err == nil {
		name = filepath.Join(dir, filepath.Base(name))
	}
	return name
}

func validRootName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// archivePath maps a root-relative slash path to its name inside the zip.
func (p *plan) archivePath(rel string) string {
	if p.rootName == "" {
		return rel
	}
	return path.Join(p.rootName, rel)
}
