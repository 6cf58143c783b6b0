package plugpack

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/artifacts"
	"github.com/varalys/plugpack/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:     "ls ARCHIVE",
		Aliases: []string{"list"},
		Short:   "List the entries of a zip archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entries, err := artifacts.List(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return report.WriteJSON(os.Stdout, entries)
			}
			return report.PrintListing(os.Stdout, entries)
		},
	}
	rootCmd.AddCommand(cmd)
}
