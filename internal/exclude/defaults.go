package exclude

// defaultExcludes are development-only names that never belong in a
// distributable plugin archive. They are matched as whole path segments
// regardless of the user's chosen mode.
var defaultExcludes = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".cursor",
	".idea",
	".vscode",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*~",
}

// Defaults returns a copy of the built-in exclude list.
func Defaults() []string {
	out := make([]string, len(defaultExcludes))
	copy(out, defaultExcludes)
	return out
}

// DefaultSet returns the built-in excludes compiled in segment mode.
func DefaultSet() *Set {
	return MustNew(ModeSegment, defaultExcludes)
}
