package plugpack

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/artifacts"
	"github.com/varalys/plugpack/internal/config"
	"github.com/varalys/plugpack/internal/exclude"
	"github.com/varalys/plugpack/internal/report"
)

var (
	verifyExclude         []string
	verifyMatch           string
	verifyDefaultExcludes bool
	verifyFlat            bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify ARCHIVE",
		Short: "Check that an archive contains no excluded paths",
		Long:  "verify lists every archive entry that the exclusion patterns would have removed. It exits 1 when any are found.",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringArrayVarP(&verifyExclude, "exclude", "e", nil, "exclusion pattern (repeatable)")
	cmd.Flags().StringVar(&verifyMatch, "match", "", "pattern mode: segment|substring|glob (default segment)")
	cmd.Flags().BoolVar(&verifyDefaultExcludes, "default-excludes", true, "also check the built-in exclude list")
	cmd.Flags().BoolVar(&verifyFlat, "flat", false, "archive has no top-level folder; match entry names as-is")
}

// verifyMatcher builds the matcher verify checks entries against.
func verifyMatcher(lcfg, gcfg config.FileConfig, useDefaults bool) (exclude.Matcher, error) {
	mode, err := exclude.ParseMode(pickString(verifyMatch, lcfg.Match, gcfg.Match))
	if err != nil {
		return nil, err
	}
	set, err := exclude.New(mode, pickStrings(verifyExclude, lcfg.Exclude, gcfg.Exclude))
	if err != nil {
		return nil, err
	}
	m := exclude.Any{set}
	if useDefaults {
		m = append(m, exclude.DefaultSet())
	}
	return m, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	lcfg, gcfg := loadConfigs(cwd)
	useDefaults := pickFlagBool(cmd, "default-excludes", verifyDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes, true)
	m, err := verifyMatcher(lcfg, gcfg, useDefaults)
	if err != nil {
		return err
	}

	strip := ""
	if !pickFlagBool(cmd, "flat", verifyFlat, lcfg.Flat, gcfg.Flat, false) {
		entries, err := artifacts.List(args[0])
		if err != nil {
			return err
		}
		strip = artifacts.RootFolder(entries)
	}

	violations, err := artifacts.Verify(args[0], m, strip)
	if err != nil {
		return err
	}
	if flagJSON {
		if violations == nil {
			violations = []artifacts.Violation{}
		}
		if err := report.WriteJSON(os.Stdout, violations); err != nil {
			return err
		}
	} else {
		report.PrintViolations(os.Stdout, violations, report.PrintOptions{NoColor: colorDisabled(lcfg, gcfg)})
	}
	if len(violations) > 0 {
		return exitCode(1, nil)
	}
	return nil
}
