// Package engine contains the filtered archive builder. It walks a plugin
// source tree, prunes excluded directories, and streams the remaining files
// into a DEFLATE-compressed zip. Callers get a typed Result or *BuildError
// and decide how to report it.
package engine
