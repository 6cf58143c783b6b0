package plugpack

import (
	"os"
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/varalys/plugpack/internal/config"
	"github.com/varalys/plugpack/internal/update"
)

// currentVersion is the running binary's semver. Module builds installed
// with go install carry their tag in the build info; anything unparseable
// is treated as 0.0.0 so the next release always wins.
func currentVersion() semver.Version {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	cur, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.Version{}
	}
	return cur
}

// selfUpdate replaces the running binary with the latest GitHub release and
// returns the version now installed.
func selfUpdate(cur semver.Version) (string, error) {
	latest, err := selfupdate.UpdateSelf(semver3.Version{Major: cur.Major, Minor: cur.Minor, Patch: cur.Patch}, update.Slug)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return cur.String(), nil
	}
	return latest.Version.String(), nil
}

// loadConfigs returns the local config found in dir and the global config.
// Missing files yield zero values.
func loadConfigs(dir string) (local, global config.FileConfig) {
	if c, err := config.LoadGlobal(); err == nil {
		global = c
	}
	if c, err := config.LoadLocal(dir); err == nil {
		local = c
	}
	return local, global
}

// colorDisabled reports whether human output should be plain: --no-color,
// NO_COLOR, a config setting, or stderr not being a terminal.
func colorDisabled(local, global config.FileConfig) bool {
	if flagNoColor || os.Getenv("NO_COLOR") != "" {
		return true
	}
	if pickBool(false, local.NoColor, global.NoColor) {
		return true
	}
	return !term.IsTerminal(int(os.Stderr.Fd()))
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickFlagBool is pickBool for flags whose explicit false must win over
// config, such as --default-excludes=false.
func pickFlagBool(cmd *cobra.Command, name string, cli bool, local, global *bool, def bool) bool {
	if cmd.Flags().Changed(name) {
		return cli
	}
	if local == nil && global == nil {
		return def
	}
	return pickBool(false, local, global)
}

// pickStrings returns the first non-empty list in CLI > local > global order.
func pickStrings(cli, local, global []string) []string {
	switch {
	case len(cli) > 0:
		return cli
	case len(local) > 0:
		return local
	default:
		return global
	}
}
