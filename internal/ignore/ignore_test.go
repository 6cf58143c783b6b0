package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIgnoreMatch(t *testing.T) {
	dir := t.TempDir()
	ig := filepath.Join(dir, FileName)
	content := "node_modules/\n*.pem\n# comment\n\nsecret.env\n"
	if err := os.WriteFile(ig, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(ig)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 patterns, got %d", m.Len())
	}
	cases := map[string]bool{
		"node_modules/pkg/index.js": true,
		"certs/key.pem":             true,
		"secret.env":                true,
		"src/app.go":                false,
	}
	for p, want := range cases {
		if got := m.Match(p); got != want {
			t.Fatalf("Match(%q)=%v want %v", p, got, want)
		}
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("missing ignore file should not error: %v", err)
	}
	if m.Match("anything.txt") || m.Len() != 0 {
		t.Fatal("empty matcher must not ignore anything")
	}
}

func TestMatchEntry_DirOnlyAndNegation(t *testing.T) {
	m, err := Parse(strings.NewReader("dist/\n*.log\n!keep.log\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !m.MatchEntry("dist", true) {
		t.Fatal("dist/ should match the dist directory")
	}
	if m.MatchEntry("dist", false) {
		t.Fatal("dist/ must not match a plain file named dist")
	}
	if !m.MatchEntry("logs/debug.log", false) {
		t.Fatal("*.log should match nested log files")
	}
	if m.MatchEntry("keep.log", false) {
		t.Fatal("negated pattern should re-include keep.log")
	}
	if m.MatchEntry("", true) {
		t.Fatal("root is never ignored")
	}
}

func TestMatch_WindowsSeparators(t *testing.T) {
	m := FromPatterns([]string{"react/src"})
	if !m.Match(`react\src\index.ts`) {
		t.Fatal("backslash paths should be normalized before matching")
	}
	if m.Match("react/srcbackup/index.ts") {
		t.Fatal("react/src must not match react/srcbackup")
	}
}

func TestAppend_Idempotent(t *testing.T) {
	dir := t.TempDir()
	changed, err := Append(dir, "", "node_modules/")
	if err != nil || !changed {
		t.Fatalf("first append: changed=%v err=%v", changed, err)
	}
	changed, err = Append(dir, "", "node_modules/")
	if err != nil || changed {
		t.Fatalf("second append should be a no-op: changed=%v err=%v", changed, err)
	}
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "node_modules/\n" {
		t.Fatalf("unexpected ignore file content: %q", b)
	}
}

func TestAppend_AddsMissingNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("*.log"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Append(dir, FileName, "dist/"); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "*.log\ndist/\n" {
		t.Fatalf("unexpected ignore file content: %q", b)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !m.MatchEntry("dist", true) || !m.MatchEntry("a.log", false) {
		t.Fatal("appended patterns should be honored")
	}
}

func TestAppend_RejectsEmptyPattern(t *testing.T) {
	if _, err := Append(t.TempDir(), "", "   "); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}
