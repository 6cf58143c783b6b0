package exclude

import (
	"fmt"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Mode selects how patterns are compared against candidate paths.
type Mode string

const (
	// ModeSubstring excludes a path when any pattern occurs anywhere in it.
	ModeSubstring Mode = "substring"
	// ModeSegment matches whole path segments, with doublestar globs for
	// patterns that contain glob metacharacters.
	ModeSegment Mode = "segment"
	// ModeGlob treats every pattern as a doublestar glob.
	ModeGlob Mode = "glob"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeSegment

// ParseMode converts a user-supplied mode name. The empty string maps to
// DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeSubstring:
		return ModeSubstring, nil
	case ModeSegment:
		return ModeSegment, nil
	case ModeGlob:
		return ModeGlob, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want substring|segment|glob)", s)
	}
}

// Matcher reports whether a root-relative, slash-separated path is excluded.
type Matcher interface {
	Match(rel string, isDir bool) bool
}

// MatcherFunc adapts a plain function to Matcher.
type MatcherFunc func(rel string, isDir bool) bool

// Match implements Matcher.
func (f MatcherFunc) Match(rel string, isDir bool) bool { return f(rel, isDir) }

// Any combines matchers; a path is excluded when any member excludes it.
// Nil members are ignored.
type Any []Matcher

// Match implements Matcher.
func (a Any) Match(rel string, isDir bool) bool {
	for _, m := range a {
		if m != nil && m.Match(rel, isDir) {
			return true
		}
	}
	return false
}

type pattern struct {
	raw      string
	text     string
	segs     []string
	dirOnly  bool
	anchored bool
	glob     bool
}

// Set is a compiled, ordered collection of exclusion patterns. The zero
// value excludes nothing.
type Set struct {
	mode     Mode
	patterns []pattern
}

// New compiles patterns under the given mode. Blank patterns are dropped and
// duplicates are collapsed. Invalid glob syntax is reported as an error.
func New(mode Mode, patterns []string) (*Set, error) {
	if mode == "" {
		mode = DefaultMode
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	s := &Set{mode: mode}
	seen := make(map[string]struct{}, len(patterns))
	for _, raw := range patterns {
		p, ok, err := compile(mode, raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[p.raw]; dup {
			continue
		}
		seen[p.raw] = struct{}{}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for static pattern lists.
func MustNew(mode Mode, patterns []string) *Set {
	s, err := New(mode, patterns)
	if err != nil {
		panic(err)
	}
	return s
}

func compile(mode Mode, raw string) (pattern, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return pattern{}, false, nil
	}
	p := pattern{raw: trimmed}
	if mode == ModeSubstring {
		p.text = strings.ReplaceAll(trimmed, `\`, "/")
		return p, true, nil
	}
	t := strings.ReplaceAll(trimmed, `\`, "/")
	t = strings.TrimPrefix(t, "./")
	if strings.HasPrefix(t, "/") {
		p.anchored = true
		t = strings.TrimLeft(t, "/")
	}
	if strings.HasSuffix(t, "/") {
		p.dirOnly = true
		t = strings.TrimRight(t, "/")
	}
	if t == "" {
		return pattern{}, false, nil
	}
	p.text = t
	p.glob = mode == ModeGlob || hasMeta(t)
	if p.glob {
		if !doublestar.ValidatePattern(t) {
			return pattern{}, false, fmt.Errorf("invalid exclude pattern %q", raw)
		}
	} else {
		p.segs = strings.Split(t, "/")
	}
	return p, true, nil
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// Mode returns the mode the set was compiled with.
func (s *Set) Mode() Mode {
	if s == nil || s.mode == "" {
		return DefaultMode
	}
	return s.mode
}

// Len returns the number of compiled patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Patterns returns the compiled patterns in their original spelling.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.raw
	}
	return out
}

// Match reports whether rel is excluded. isDir states whether rel names a
// directory; directory-only patterns (trailing slash) need it.
func (s *Set) Match(rel string, isDir bool) bool {
	if s == nil || len(s.patterns) == 0 {
		return false
	}
	rel = Normalize(rel)
	if rel == "" {
		return false
	}
	for i := range s.patterns {
		if s.patterns[i].match(s.mode, rel, isDir) {
			return true
		}
	}
	return false
}

// MatchUnanchored is Match limited to patterns without a leading slash.
// Anchored patterns are defined against the source root, so paths with a
// different root (archive paths with a top-level folder) must skip them.
func (s *Set) MatchUnanchored(rel string, isDir bool) bool {
	if s == nil {
		return false
	}
	rel = Normalize(rel)
	if rel == "" {
		return false
	}
	for i := range s.patterns {
		if !s.patterns[i].anchored && s.patterns[i].match(s.mode, rel, isDir) {
			return true
		}
	}
	return false
}

// Pattern returns the first pattern that excludes rel, or "" when none does.
func (s *Set) Pattern(rel string, isDir bool) string {
	if s == nil {
		return ""
	}
	rel = Normalize(rel)
	for i := range s.patterns {
		if s.patterns[i].match(s.mode, rel, isDir) {
			return s.patterns[i].raw
		}
	}
	return ""
}

func (p *pattern) match(mode Mode, rel string, isDir bool) bool {
	switch mode {
	case ModeSubstring:
		return strings.Contains(rel, p.text)
	case ModeGlob:
		return p.matchGlob(rel, isDir, false)
	default:
		if p.glob {
			return p.matchGlob(rel, isDir, true)
		}
		return p.matchSegments(rel, isDir)
	}
}

func (p *pattern) matchSegments(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	n := len(p.segs)
	for i := 0; i+n <= len(parts); i++ {
		if p.anchored && i > 0 {
			break
		}
		if !equalSegs(parts[i:i+n], p.segs) {
			continue
		}
		// run ends on the last element: that element must be a directory
		// for directory-only patterns; otherwise it is an ancestor.
		if p.dirOnly && i+n == len(parts) && !isDir {
			continue
		}
		return true
	}
	return false
}

func equalSegs(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p *pattern) matchGlob(rel string, isDir, suffixes bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if ok, _ := doublestar.Match(p.text, rel); ok {
		return true
	}
	if p.anchored {
		return false
	}
	if suffixes {
		for i := 0; i < len(rel); i++ {
			if rel[i] != '/' {
				continue
			}
			if ok, _ := doublestar.Match(p.text, rel[i+1:]); ok {
				return true
			}
		}
		return false
	}
	if ok, _ := doublestar.Match(p.text, path.Base(rel)); ok {
		return true
	}
	return false
}

// MatchPath reports whether rel, or any of its ancestor directories, is
// excluded by m. It is the check used on flat listings such as archive
// entries where directory pruning never happened.
func MatchPath(m Matcher, rel string) bool {
	if m == nil {
		return false
	}
	isDir := strings.HasSuffix(strings.ReplaceAll(rel, `\`, "/"), "/")
	rel = Normalize(rel)
	if rel == "" {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if m.Match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return m.Match(rel, isDir)
}

// Normalize converts p to a clean, relative, forward-slash path. The root
// itself normalizes to "".
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimLeft(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Explain returns the pattern responsible for excluding rel (or one of its
// ancestors). It returns "" when nothing matches or when the responsible
// matcher does not expose patterns.
func Explain(m Matcher, rel string) string {
	rel = Normalize(rel)
	if rel == "" {
		return ""
	}
	parts := strings.Split(rel, "/")
	for i := 1; i <= len(parts); i++ {
		if p := explainOne(m, strings.Join(parts[:i], "/"), i < len(parts)); p != "" {
			return p
		}
	}
	return ""
}

func explainOne(m Matcher, rel string, isDir bool) string {
	switch v := m.(type) {
	case *Set:
		return v.Pattern(rel, isDir)
	case Any:
		for _, inner := range v {
			if p := explainOne(inner, rel, isDir); p != "" {
				return p
			}
		}
	}
	return ""
}
