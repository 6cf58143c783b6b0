package plugpack

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/audit"
	"github.com/varalys/plugpack/internal/cache"
	"github.com/varalys/plugpack/internal/config"
	"github.com/varalys/plugpack/internal/engine"
	"github.com/varalys/plugpack/internal/exclude"
	"github.com/varalys/plugpack/internal/ignore"
	"github.com/varalys/plugpack/internal/report"
	"github.com/varalys/plugpack/internal/update"
)

var (
	flagSource          string
	flagOutput          string
	flagRootName        string
	flagFlat            bool
	flagExclude         []string
	flagMatch           string
	flagDefaultExcludes bool
	flagIgnoreFile      string
	flagLevel           int
	flagDryRun          bool
	flagTable           bool
	flagVerbose         bool
	flagHistory         bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a filtered zip of a plugin directory",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
		Example: `
# Zip the current directory next to itself, skipping node_modules
plugpack build --exclude node_modules

# Rename the folder inside the archive
plugpack build -s ./my-plugin-dev --root-name my-plugin -o dist/my-plugin.zip`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagSource, "source", "s", "", "plugin directory to archive (default: current directory)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "zip file to write (default: <root-name>.zip next to the source)")
	cmd.Flags().StringVar(&flagRootName, "root-name", "", "top-level folder name inside the archive (default: source folder name)")
	cmd.Flags().BoolVar(&flagFlat, "flat", false, "write entries at the archive root with no top-level folder")
	cmd.Flags().StringArrayVarP(&flagExclude, "exclude", "e", nil, "exclusion pattern (repeatable)")
	cmd.Flags().StringVar(&flagMatch, "match", "", "pattern mode: segment|substring|glob (default segment)")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "also exclude .git, node_modules, editor folders and OS junk")
	cmd.Flags().StringVar(&flagIgnoreFile, "ignore-file", ignore.FileName, "gitignore-style file in the source root (empty to disable)")
	cmd.Flags().IntVar(&flagLevel, "level", 0, "DEFLATE level 1-9 (0 = library default)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list what would be archived without writing")
	cmd.Flags().BoolVar(&flagTable, "table", false, "print archived entries as a table")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print each entry as it is added")
	cmd.Flags().BoolVar(&flagHistory, "history", false, "append the build to the build log next to the output")
}

// resolveBuildConfig merges flags, the local config and the global config
// (in that order of precedence) into an engine.Config with absolute paths.
func resolveBuildConfig(cmd *cobra.Command, cwd string, lcfg, gcfg config.FileConfig) (engine.Config, error) {
	source := flagSource
	if source == "" {
		source = pickString("", resolved(lcfg, lcfg.Source), resolved(gcfg, gcfg.Source))
	}
	if source == "" {
		source = "."
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(cwd, source)
	}

	mode, err := exclude.ParseMode(pickString(flagMatch, lcfg.Match, gcfg.Match))
	if err != nil {
		return engine.Config{}, err
	}

	cfg := engine.Config{
		SourceRoot:      filepath.Clean(source),
		Exclude:         pickStrings(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MatchMode:       mode,
		ArchiveRootName: pickString(flagRootName, lcfg.RootName, gcfg.RootName),
		Flat:            pickFlagBool(cmd, "flat", flagFlat, lcfg.Flat, gcfg.Flat, false),
		DefaultExcludes: pickFlagBool(cmd, "default-excludes", flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes, true),
		IgnoreFile:      flagIgnoreFile,
		Level:           pickInt(flagLevel, lcfg.Level, gcfg.Level),
		DryRun:          flagDryRun,
	}
	if !cmd.Flags().Changed("ignore-file") {
		if v := pickString("", lcfg.IgnoreFile, gcfg.IgnoreFile); v != "" {
			cfg.IgnoreFile = v
		}
	}

	output := flagOutput
	if output == "" {
		output = pickString("", resolved(lcfg, lcfg.Output), resolved(gcfg, gcfg.Output))
	}
	if output == "" {
		name := cfg.ArchiveRootName
		if name == "" {
			name = filepath.Base(cfg.SourceRoot)
		}
		output = filepath.Join(filepath.Dir(cfg.SourceRoot), name+".zip")
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(cwd, output)
	}
	cfg.OutputPath = filepath.Clean(output)
	return cfg, nil
}

// resolved makes a config-supplied path relative to the file it came from.
func resolved(fc config.FileConfig, p *string) *string {
	if p == nil || *p == "" {
		return p
	}
	r := fc.ResolvePath(*p)
	return &r
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	lcfg, gcfg := loadConfigs(cwd)
	cfg, err := resolveBuildConfig(cmd, cwd, lcfg, gcfg)
	if err != nil {
		return err
	}
	opts := report.PrintOptions{NoColor: colorDisabled(lcfg, gcfg), Verbose: flagVerbose}

	if !flagJSON {
		if !flagNoUpdateCheck {
			if n := update.NewChecker(false).Check(cmd.Context(), version); n.Newer {
				_, _ = fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'plugpack update' to upgrade\n", n.Latest)
			}
		}
		shown := cfg.OutputPath
		if cfg.DryRun {
			shown = ""
		}
		report.PrintBuildStart(os.Stderr, cfg.SourceRoot, shown, opts)
		if flagVerbose && !cfg.DryRun {
			cfg.Progress = func(e engine.Entry) { report.PrintEntry(os.Stderr, e) }
		}
	}

	recordHistory := !cfg.DryRun && pickFlagBool(cmd, "history", flagHistory, lcfg.History, gcfg.History, false)
	var buildLog *audit.BuildLog
	if recordHistory {
		buildLog = audit.ForOutput(cfg.OutputPath)
		cfg.SkipPaths = append(cfg.SkipPaths, buildLog.Path())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, buildErr := engine.Build(ctx, cfg)

	if buildLog != nil {
		rec := audit.CreateBuildRecord(res, cfg.Exclude, buildErr)
		if rec.Output == "" {
			rec.Source, rec.Output = cfg.SourceRoot, cfg.OutputPath
		}
		if err := buildLog.LogBuild(rec); err != nil && !flagJSON {
			_, _ = fmt.Fprintf(os.Stderr, "warning: build log: %v\n", err)
		}
	}

	if buildErr != nil {
		if flagJSON {
			_ = report.WriteJSON(os.Stdout, map[string]string{
				"error": buildErr.Error(),
				"kind":  engine.KindOf(buildErr).String(),
			})
		} else {
			report.PrintFailure(os.Stderr, buildErr, opts)
		}
		return exitCode(2, nil)
	}

	var changes *cache.Changes
	if !cfg.DryRun {
		cur := cache.FromResult(res)
		if prev, err := cache.Load(res.OutputPath); err == nil {
			c := cache.Diff(prev, cur)
			changes = &c
		}
		_ = cache.Save(cur)
	}

	if flagJSON {
		return report.WriteJSON(os.Stdout, res)
	}
	if changes != nil {
		report.PrintChanges(os.Stderr, *changes, opts)
	}
	if flagTable {
		if err := report.PrintEntries(os.Stdout, res.Entries); err != nil {
			return err
		}
	}
	report.PrintBuild(os.Stderr, res, opts)
	return nil
}
