package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/linter"
)

var lintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Validate shape files",
	Long:  `Scans shape files for polygons the skeleton builder rejects: wrong winding, repeated points, crossing edges, holes outside their boundary and overlapping polygons.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, config, err := shapesDir(args)
		if err != nil {
			return err
		}

		return linter.Lint(dir, config.Kernel())
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
