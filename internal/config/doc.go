// Package config loads plugpack configuration from local and global YAML
// files. CLI code merges them under command-line flags with the precedence
// flag > local > global.
package config
