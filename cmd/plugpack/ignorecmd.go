package plugpack

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varalys/plugpack/internal/ignore"
)

func init() {
	var dir string
	var name string

	cmd := &cobra.Command{
		Use:   "ignore PATTERN...",
		Short: "Add patterns to the source tree's ignore file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, p := range args {
				changed, err := ignore.Append(dir, name, p)
				if err != nil {
					return err
				}
				if changed {
					fmt.Println("added", p)
				} else {
					fmt.Println("already present", p)
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&dir, "source", "s", ".", "plugin directory holding the ignore file")
	cmd.Flags().StringVar(&name, "ignore-file", ignore.FileName, "ignore file name")
}
