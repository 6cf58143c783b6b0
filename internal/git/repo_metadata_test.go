package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestRepoMetadata(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("init", &gogit.CommitOptions{
		AllowEmptyCommits: true,
		Author:            &object.Signature{Name: "tester", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:varalys/plugpack.git"}}); err != nil {
		t.Fatal(err)
	}

	sub := filepath.Join(dir, "plugin")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	md := RepoMetadata(sub)
	if md.Commit != hash.String() {
		t.Fatalf("commit = %q, want %q", md.Commit, hash.String())
	}
	if md.Branch == "" {
		t.Fatalf("expected non-empty branch")
	}
	if md.Repo != "varalys/plugpack" {
		t.Fatalf("repo = %q", md.Repo)
	}
}

func TestRepoMetadata_NotARepo(t *testing.T) {
	if md := RepoMetadata(t.TempDir()); md != (Metadata{}) {
		t.Fatalf("expected zero metadata outside a repository; got %+v", md)
	}
	if md := RepoMetadata(filepath.Join(t.TempDir(), "missing")); md != (Metadata{}) {
		t.Fatalf("expected zero metadata for a missing path; got %+v", md)
	}
}

func TestShortRepo(t *testing.T) {
	cases := map[string]string{
		"git@github.com:varalys/plugpack.git":     "varalys/plugpack",
		"https://github.com/varalys/plugpack.git": "varalys/plugpack",
		"https://gitlab.example.com/a/b/c":        "a/b/c",
		"plugpack":                                "plugpack",
	}
	for in, want := range cases {
		if got := shortRepo(in); got != want {
			t.Fatalf("shortRepo(%q) = %q, want %q", in, got, want)
		}
	}
}
