package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view {shape-file}",
	Short: "Open the interactive viewer for a shape file",
	Long: `Opens a window showing the polygons of a shape file, their straight skeleton
and offset contours. The file is reloaded whenever it changes on disk. A bare
name is looked up in the shapes directory of the project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}
		root, config, err := loadProject()
		if err != nil {
			return err
		}

		shapePath := args[0]
		if _, err := os.Stat(shapePath); err != nil && root != "" && filepath.Dir(shapePath) == "." {
			if filepath.Ext(shapePath) == "" {
				shapePath += ".yaml"
			}
			shapePath = filepath.Join(config.ShapesDir(root), shapePath)
		}
		if _, err := os.Stat(shapePath); err != nil {
			return fmt.Errorf("opening shape file: %w", err)
		}
		log.Printf("loading shape file %s", shapePath)

		go func() {
			window := new(app.Window)
			window.Option(app.Title("skel - "+filepath.Base(shapePath)), app.Size(unit.Dp(1280), unit.Dp(800)))
			window.Perform(system.ActionMaximize)
			err := run(window, shapePath, config.Kernel(), config.Offsets)
			if err != nil {
				log.Fatal(err)
			}
			os.Exit(0)
		}()
		app.Main()

		return nil
	},
}

func run(window *app.Window, shapePath string, k geom.Kernel, offsets []float64) error {
	theme := material.NewTheme()
	v := viewer.New(theme, shapePath, k, offsets, window.Invalidate)

	// a broken file still opens, the viewer shows the error
	if err := v.Reload(); err != nil {
		log.Printf("warning: failed to load %s: %v", shapePath, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		if err := v.Watch(done); err != nil {
			log.Printf("warning: not watching %s: %v", shapePath, err)
		}
	}()

	var ops op.Ops
	for {
		switch e := window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			v.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
