package plugpack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/config"
	"github.com/varalys/plugpack/internal/optrows"
	"github.com/varalys/plugpack/internal/report"
)

var (
	optKeywords  []string
	optAll       bool
	optNamesOnly bool
	optExtract   []string
	optTable     string
	optOut       string
	optAppend    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "options DUMP",
		Short: "Find option rows in a SQL dump and re-emit them as INSERTs",
		Long: `options scans a plain-text SQL dump ("-" reads stdin) for option tuples
of the form (id, 'name', 'value', 'autoload').

Without --names-only or --extract it lists matching rows. --names-only prints
the names found inside INSERT blocks for --table-name. --extract writes one
INSERT statement per named row.`,
		Args: cobra.ExactArgs(1),
		RunE: runOptions,
		Example: `
# Rows whose name mentions a token or api key
plugpack options dump.sql --keyword token --keyword api

# Copy two rows into a migration file
plugpack options dump.sql --extract my_plugin_settings --extract my_plugin_license --out rows.sql --append`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringArrayVarP(&optKeywords, "keyword", "k", nil, "case-insensitive name substring (repeatable)")
	cmd.Flags().BoolVar(&optAll, "all", false, "include transient and session rows")
	cmd.Flags().BoolVar(&optNamesOnly, "names-only", false, "print option names from the table's INSERT blocks")
	cmd.Flags().StringArrayVar(&optExtract, "extract", nil, "option name to emit as an INSERT statement (repeatable)")
	cmd.Flags().StringVar(&optTable, "table-name", "", "options table name (default "+config.DefaultOptionsTable+")")
	cmd.Flags().StringVar(&optOut, "out", "", "write results to this file instead of stdout")
	cmd.Flags().BoolVar(&optAppend, "append", false, "append to --out instead of truncating it")
}

func runOptions(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	lcfg, gcfg := loadConfigs(cwd)
	ocfg := lcfg.GetOptionsConfig()
	if lcfg.Options == nil {
		ocfg = gcfg.GetOptionsConfig()
	}
	table := optTable
	if table == "" {
		table = ocfg.GetTable()
	}
	filter := optrows.Filter{
		Keywords:      pickStrings(optKeywords, ocfg.Keywords, nil),
		SkipTransient: !optAll,
	}
	extract := pickStrings(optExtract, ocfg.Extract, nil)

	in, closeIn, err := openDump(args[0])
	if err != nil {
		return err
	}
	defer closeIn()

	if len(extract) > 0 && !optNamesOnly {
		rows, err := optrows.Scan(in, optrows.Filter{})
		if err != nil {
			return err
		}
		return extractRows(optOut, optAppend, table, rows, extract)
	}

	out, closeOut, err := openOut(optOut, optAppend)
	if err != nil {
		return err
	}
	defer closeOut()

	switch {
	case optNamesOnly:
		names, err := optrows.Names(in, table, filter)
		if err != nil {
			return err
		}
		if flagJSON {
			if names == nil {
				names = []string{}
			}
			return report.WriteJSON(out, names)
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		fmt.Fprintf(os.Stderr, "%d option names\n", len(names))
		return nil
	default:
		rows, err := optrows.Scan(in, filter)
		if err != nil {
			return err
		}
		if flagJSON {
			if rows == nil {
				rows = []optrows.Row{}
			}
			return report.WriteJSON(out, rows)
		}
		return report.PrintOptionRows(out, rows)
	}
}

// extractRows writes an INSERT for every requested name that exists. Missing
// names are reported on stderr and do not fail the command. The output is
// only opened once at least one row was found, so an existing file is left
// alone when nothing matches.
func extractRows(outPath string, appendMode bool, table string, rows []optrows.Row, names []string) error {
	found := make([]optrows.Row, 0, len(names))
	for _, name := range names {
		row, err := optrows.Find(rows, name)
		if errors.Is(err, optrows.ErrNotMatched) {
			fmt.Fprintf(os.Stderr, "not found: %s\n", name)
			continue
		}
		found = append(found, row)
	}
	fmt.Fprintf(os.Stderr, "extracted %d of %d rows\n", len(found), len(names))
	if len(found) == 0 {
		return nil
	}
	out, closeOut, err := openOut(outPath, appendMode)
	if err != nil {
		return err
	}
	defer closeOut()
	return optrows.WriteInserts(out, table, found)
}

func openDump(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOut(path string, appendMode bool) (io.Writer, func(), error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, func() {}, nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
