package plugpack

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/report"
	"github.com/varalys/plugpack/internal/update"
)

func init() {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update plugpack to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cur := currentVersion()
			if !checkOnly {
				v, err := selfUpdate(cur)
				if err != nil {
					return fmt.Errorf("self-update: %w", err)
				}
				fmt.Printf("plugpack is at v%s\n", v)
				return nil
			}
			c := update.NewChecker(true)
			latest, err := c.Lookup(cmd.Context())
			if err != nil {
				return err
			}
			n := update.Notice{Current: cur.String(), Latest: latest, Newer: update.Compare(latest, cur.String()) > 0}
			if flagJSON {
				return report.WriteJSON(cmd.OutOrStdout(), n)
			}
			if n.Newer {
				fmt.Fprintf(cmd.OutOrStdout(), "v%s is available (running v%s)\n", n.Latest, n.Current)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "v%s is the latest release\n", n.Current)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "only report whether a newer release exists")
	rootCmd.AddCommand(cmd)
}
