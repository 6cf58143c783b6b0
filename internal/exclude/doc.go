// Package exclude compiles exclusion pattern sets and decides whether a
// relative path should be left out of a plugin archive. Paths are always
// compared in forward-slash form so patterns behave the same on every OS.
package exclude
