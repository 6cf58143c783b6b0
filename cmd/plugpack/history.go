package plugpack

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/audit"
	"github.com/varalys/plugpack/internal/report"
)

func init() {
	var dir string
	var limit int
	var remove int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds",
		Long:  "history reads the build log written by 'plugpack build --history' from the output directory.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log := audit.NewBuildLog(dir)
			if remove >= 0 {
				return log.DeleteRecord(remove)
			}
			records, err := log.LoadHistory()
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if flagJSON {
				if records == nil {
					records = []audit.BuildRecord{}
				}
				return report.WriteJSON(os.Stdout, records)
			}
			return report.PrintHistory(os.Stdout, records)
		},
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the build log")
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most N builds (0 = all)")
	cmd.Flags().IntVar(&remove, "delete", -1, "delete the record at this index (0 = newest)")
}
