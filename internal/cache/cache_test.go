package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/varalys/plugpack/internal/engine"
)

func TestLoadSave(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "plugin.zip")

	// initial load should return empty DB and error
	db, err := Load(out)
	if err == nil {
		t.Fatalf("expected error for cold cache")
	}
	if db.Entries == nil {
		t.Fatalf("expected entries map initialized")
	}
	db.Entries["plugin/a.php"] = "deadbeef"
	if err := Save(db); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(pathFor(out)); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if filepath.Dir(pathFor(out)) == filepath.Dir(out) {
		t.Fatalf("manifest must not be written next to the output")
	}
	db2, err := Load(out)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if got := db2.Entries["plugin/a.php"]; got != "deadbeef" {
		t.Fatalf("unexpected entry: %q", got)
	}
}

func TestManifestsAreKeyedByOutput(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	a := FromResult(engine.Result{OutputPath: filepath.Join(dir, "a.zip"), Entries: []engine.Entry{{Path: "x", Hash: "1"}}})
	b := FromResult(engine.Result{OutputPath: filepath.Join(dir, "b.zip"), Entries: []engine.Entry{{Path: "y", Hash: "2"}}})
	if err := Save(a); err != nil {
		t.Fatal(err)
	}
	if err := Save(b); err != nil {
		t.Fatal(err)
	}
	got, err := Load(filepath.Join(dir, "a.zip"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 1 || got.Entries["x"] != "1" {
		t.Fatalf("unexpected manifest for a.zip: %+v", got.Entries)
	}
}

func TestSaveRejectsNilEntries(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	if err := Save(DB{Output: "x.zip"}); err == nil {
		t.Fatal("expected error for nil entries")
	}
}

func TestDiff(t *testing.T) {
	prev := DB{Entries: map[string]string{"keep": "1", "edit": "1", "gone": "1"}}
	cur := DB{Entries: map[string]string{"keep": "1", "edit": "2", "new": "1"}}
	c := Diff(prev, cur)
	if len(c.Added) != 1 || c.Added[0] != "new" {
		t.Fatalf("added = %v", c.Added)
	}
	if len(c.Modified) != 1 || c.Modified[0] != "edit" {
		t.Fatalf("modified = %v", c.Modified)
	}
	if len(c.Removed) != 1 || c.Removed[0] != "gone" {
		t.Fatalf("removed = %v", c.Removed)
	}
	if c.Empty() {
		t.Fatal("changes should not be empty")
	}
	if !Diff(cur, cur).Empty() {
		t.Fatal("identical manifests should produce no changes")
	}
}
