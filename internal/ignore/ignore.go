// Package ignore loads gitignore-style ignore files that sit at the root of
// a plugin source tree.
package ignore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the ignore file looked up in the source root by default.
const FileName = ".plugpackignore"

// Matcher answers ignore queries for root-relative paths. The zero value
// ignores nothing.
type Matcher struct {
	m        gitignore.Matcher
	patterns []string
}

// Load reads ignore patterns from path. A missing file yields an empty
// matcher and no error so callers can use the result unconditionally.
func Load(path string) (Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matcher{}, nil
		}
		return Matcher{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads ignore patterns from r. Blank lines and # comments are skipped.
func Parse(r io.Reader) (Matcher, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return Matcher{}, err
	}
	return FromPatterns(lines), nil
}

// FromPatterns builds a matcher from gitignore pattern lines. Later patterns
// take precedence, and "!" negation is honored.
func FromPatterns(lines []string) Matcher {
	ps := make([]gitignore.Pattern, 0, len(lines))
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(l, nil))
		kept = append(kept, l)
	}
	if len(ps) == 0 {
		return Matcher{}
	}
	return Matcher{m: gitignore.NewMatcher(ps), patterns: kept}
}

// Len returns the number of loaded patterns.
func (m Matcher) Len() int { return len(m.patterns) }

// Match reports whether rel is ignored. A trailing slash marks rel as a
// directory.
func (m Matcher) Match(rel string) bool {
	rel = strings.ReplaceAll(rel, `\`, "/")
	return m.MatchEntry(rel, strings.HasSuffix(rel, "/"))
}

// MatchEntry reports whether rel is ignored, with explicit directory
// information as reported by the filesystem walk.
func (m Matcher) MatchEntry(rel string, isDir bool) bool {
	if m.m == nil {
		return false
	}
	rel = strings.Trim(strings.ReplaceAll(rel, `\`, "/"), "/")
	if rel == "" || rel == "." {
		return false
	}
	return m.m.Match(strings.Split(rel, "/"), isDir)
}

// Append ensures pattern is present in the ignore file at dir/name, creating
// the file if missing. It reports whether the file changed.
func Append(dir, name, pattern string) (bool, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false, errors.New("empty pattern")
	}
	if name == "" {
		name = FileName
	}
	path := filepath.Join(dir, name)

	existing := map[string]bool{}
	endsWithNewline := true
	if b, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			existing[strings.TrimSpace(line)] = true
		}
		endsWithNewline = len(b) == 0 || b[len(b)-1] == '\n'
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if existing[pattern] {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()
	line := pattern + "\n"
	if !endsWithNewline {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return false, err
	}
	return true, nil
}
