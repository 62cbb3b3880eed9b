package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/project"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "skel",
	Short: "skel - Straight skeletons and offset contours of polygons",
	Long: `skel computes straight skeletons of polygons with holes and derives
inward and outward offset contours from them. It lints and formats shape
files, renders skeletons to images and opens an interactive viewer.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		skeleton.SetLogger(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skeleton construction details")
}

// getProjectRoot returns the project root directory by looking for skel.yaml.
func getProjectRoot() (string, error) {
	return project.FindProjectRoot()
}

// loadProject returns the project root and its configuration. Outside of a
// project the defaults apply and root is empty.
func loadProject() (string, *project.Config, error) {
	root, err := getProjectRoot()
	if err != nil {
		slog.Debug("no project found, using defaults", "reason", err)
		return "", project.Default(""), nil
	}
	config, err := project.LoadConfig(root)
	if err != nil {
		return "", nil, fmt.Errorf("loading project config: %w", err)
	}
	return root, config, nil
}

// shapesDir returns the directory to scan: the argument if given, else the
// project's shape directory.
func shapesDir(args []string) (string, *project.Config, error) {
	root, config, err := loadProject()
	if err != nil {
		return "", nil, err
	}
	if len(args) > 0 {
		return args[0], config, nil
	}
	if root == "" {
		return "", nil, errors.New("no directory given and no skel.yaml found")
	}
	return config.ShapesDir(root), config, nil
}
