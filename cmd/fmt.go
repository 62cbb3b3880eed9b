package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/formatter"
)

var (
	fmtCheck bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [dir]",
	Short: "Format shape files",
	Long:  `Rewrites shape files in canonical form: repeated points removed, outer boundaries counter-clockwise, holes clockwise, four space indentation.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _, err := shapesDir(args)
		if err != nil {
			return err
		}

		if fmtCheck {
			return formatter.Check(dir)
		}

		return formatter.Format(dir)
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Check formatting without modifying files")
}
