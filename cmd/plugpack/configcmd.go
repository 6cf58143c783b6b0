package plugpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/varalys/plugpack/internal/config"
	"github.com/varalys/plugpack/internal/exclude"
	"github.com/varalys/plugpack/internal/ignore"
)

var (
	cfgOutput          string
	cfgForce           bool
	cfgRootName        string
	cfgExclude         []string
	cfgMatch           string
	cfgLevel           int
	cfgNoColor         bool
	cfgDefaultExcludes bool
	cfgHistory         bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .plugpack.yml with build defaults",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgRootName, "root-name", "", "top-level folder name inside the archive")
	initCmd.Flags().StringArrayVar(&cfgExclude, "exclude", nil, "exclusion pattern (repeatable)")
	initCmd.Flags().StringVar(&cfgMatch, "match", string(exclude.DefaultMode), "pattern mode: segment|substring|glob")
	initCmd.Flags().IntVar(&cfgLevel, "level", 0, "DEFLATE level 1-9 (0 = library default)")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable the built-in exclude list")
	initCmd.Flags().BoolVar(&cfgHistory, "history", false, "record every build in the build log")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	mode, err := exclude.ParseMode(cfgMatch)
	if err != nil {
		return err
	}
	if _, err := exclude.New(mode, cfgExclude); err != nil {
		return err
	}
	if !cfgForce {
		if _, err := os.Stat(cfgOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	fc := config.FileConfig{
		RootName:        optStrPtr(cfgRootName),
		Exclude:         cfgExclude,
		Match:           strPtr(string(mode)),
		DefaultExcludes: boolPtr(cfgDefaultExcludes),
		IgnoreFile:      strPtr(ignore.FileName),
		Level:           intPtr(cfgLevel),
		NoColor:         boolPtr(cfgNoColor),
		History:         boolPtr(cfgHistory),
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func boolPtr(v bool) *bool { return &v }
