package plugpack

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"
)

// runCLI runs the plugpack binary from the module root as a subprocess to
// avoid os.Exit in-process. It returns stdout and the exit code.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	if testing.Short() {
		t.Skip("subprocess CLI test")
	}
	cmd := exec.Command("go", append([]string{"run", "."}, args...)...)
	cmd.Dir = filepath.Clean(filepath.Join("..", ".."))
	cmd.Env = append(os.Environ(), "CI=1", "NO_COLOR=1", "XDG_CONFIG_HOME="+t.TempDir())
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var ee *exec.ExitError
	switch {
	case err == nil:
		return out.String(), 0
	case errors.As(err, &ee):
		return out.String(), ee.ExitCode()
	default:
		t.Fatalf("execute: %v", err)
		return "", -1
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCLI_Build_JSON_And_Verify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plugin-dev")
	writeFile(t, filepath.Join(src, "plugin.php"), "<?php // main")
	writeFile(t, filepath.Join(src, "react", "src", "index.ts"), "export {}")
	writeFile(t, filepath.Join(src, "react", "dist", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(src, "node_modules", "x", "index.js"), "module.exports = 1")
	out := filepath.Join(dir, "plugin.zip")

	stdout, code := runCLI(t, "build", "--json", "-s", src, "-o", out, "--root-name", "plugin", "--exclude", "react/src")
	if code != 0 {
		t.Fatalf("build exit code %d\n%s", code, stdout)
	}
	var res struct {
		Output  string `json:"output"`
		Bytes   int64  `json:"bytes"`
		Entries []struct {
			Path string `json:"path"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("json unmarshal: %v\n%s", err, stdout)
	}
	var got []string
	for _, e := range res.Entries {
		got = append(got, e.Path)
	}
	sort.Strings(got)
	want := []string{"plugin/plugin.php", "plugin/react/dist/app.js"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	if res.Bytes <= 0 {
		t.Fatalf("expected non-zero archive size")
	}

	if _, code := runCLI(t, "verify", out, "--exclude", "react/src"); code != 0 {
		t.Fatalf("verify of a clean archive exited %d", code)
	}
	if _, code := runCLI(t, "verify", out, "--exclude", "react/dist"); code != 1 {
		t.Fatalf("verify with a violated pattern should exit 1; got %d", code)
	}
}

func TestCLI_Build_MissingSource_ExitCode(t *testing.T) {
	dir := t.TempDir()
	stdout, code := runCLI(t, "build", "--json", "-s", filepath.Join(dir, "nope"), "-o", filepath.Join(dir, "x.zip"))
	if code != 2 {
		t.Fatalf("expected exit 2 for a missing source; got %d", code)
	}
	var obj map[string]string
	if err := json.Unmarshal([]byte(stdout), &obj); err != nil {
		t.Fatalf("json unmarshal: %v\n%s", err, stdout)
	}
	if obj["kind"] != "NotFound" {
		t.Fatalf("expected NotFound kind; got %q", obj["kind"])
	}
	if _, err := os.Stat(filepath.Join(dir, "x.zip")); !os.IsNotExist(err) {
		t.Fatalf("no archive should be created on failure")
	}
}

func TestCLI_Options_Extract(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.sql")
	writeFile(t, dump, "INSERT INTO `wp_options` (`option_id`, `option_name`, `option_value`, `autoload`) VALUES\n"+
		"(1, 'siteurl', 'https://example.test', 'yes'),\n"+
		"(2, 'my_api_token', 'a:1:{s:3:\"key\";s:5:\"x,y()\";}', 'no');\n")
	out := filepath.Join(dir, "rows.sql")

	if _, code := runCLI(t, "options", dump, "--extract", "my_api_token", "--extract", "missing", "--out", out); code != 0 {
		t.Fatalf("options exit code %d", code)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("(2, 'my_api_token',")) || bytes.Contains(b, []byte("siteurl")) {
		t.Fatalf("unexpected extract output:\n%s", b)
	}
}
