// Package cache remembers the entry digests of the last build of each output
// so the next build can report what changed.
package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/varalys/plugpack/internal/engine"
)

type DB struct {
	Output string    `json:"output"`
	Built  time.Time `json:"built"`

	// Archive path -> content digest
	Entries map[string]string `json:"entries"`
}

// Changes lists archive paths that differ between two builds.
type Changes struct {
	Added    []string `json:"added,omitempty"`
	Modified []string `json:"modified,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// Dir returns the directory manifests are kept in, under the user cache dir.
func Dir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return ""
	}
	return filepath.Join(base, "plugpack", "manifests")
}

// pathFor keys a manifest by the digest of the absolute output path so
// manifests never land inside a source tree.
func pathFor(output string) string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	return filepath.Join(dir, engine.HashBytes([]byte(output))+".json")
}

// Load returns the manifest recorded for output. A missing manifest yields an
// empty DB and an error, like a cold cache.
func Load(output string) (DB, error) {
	db := DB{Output: output, Entries: map[string]string{}}
	p := pathFor(output)
	if p == "" {
		return db, errors.New("no cache dir")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return db, err
	}
	if err := json.Unmarshal(b, &db); err != nil {
		return DB{Output: output, Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

func Save(db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	p := pathFor(db.Output)
	if p == "" {
		return errors.New("no cache dir")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(p, b, 0644)
}

// FromResult builds a manifest from a finished build.
func FromResult(res engine.Result) DB {
	db := DB{Output: res.OutputPath, Built: time.Now(), Entries: make(map[string]string, len(res.Entries))}
	for _, e := range res.Entries {
		db.Entries[e.Path] = e.Hash
	}
	return db
}

// Diff compares the previous manifest with the current one.
func Diff(prev, cur DB) Changes {
	var c Changes
	for name, sum := range cur.Entries {
		old, ok := prev.Entries[name]
		switch {
		case !ok:
			c.Added = append(c.Added, name)
		case old != sum:
			c.Modified = append(c.Modified, name)
		}
	}
	for name := range prev.Entries {
		if _, ok := cur.Entries[name]; !ok {
			c.Removed = append(c.Removed, name)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Modified)
	sort.Strings(c.Removed)
	return c
}
