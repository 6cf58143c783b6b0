// Package plugpack provides the command-line interface for plugpack. It
// wires the build, ls, verify, options and history subcommands to the
// internal packages, merges flags with YAML config, and maps failures to
// exit codes.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/plugpack/cmd/plugpack"
//	func main() { plugpack.Execute() }
package plugpack
