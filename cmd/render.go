package cmd

import (
	"context"
	"fmt"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/project"
	"github.com/bloodmagesoftware/skel/render"
	"github.com/bloodmagesoftware/skel/shape"
)

var (
	renderOutput   string
	renderFormat   string
	renderWidth    int
	renderHeight   int
	renderOffsets  []float64
	renderExterior bool
	renderTimeout  time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render [shape-file]",
	Short: "Render skeletons and offsets to images",
	Long: `Renders a shape file with its straight skeleton and offset contours. Without
an argument every shape file of the project is rendered into the out directory
of the project root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, config, err := loadProject()
		if err != nil {
			return err
		}
		opts, format := renderOptions(cmd, config)

		if len(args) == 1 {
			out := renderOutput
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
			}
			img, err := renderFile(args[0], config, opts)
			if err != nil {
				return err
			}
			if err := render.WriteFile(out, img, format); err != nil {
				return err
			}
			fmt.Printf("✅ Rendered %s -> %s\n", args[0], out)
			return nil
		}

		if root == "" {
			return fmt.Errorf("no shape file given and no %s found", project.ConfigFileName)
		}
		outDir := renderOutput
		if outDir == "" {
			outDir = filepath.Join(root, "out")
		}
		fmt.Printf("Rendering shapes with %s timeout per file...\n", renderTimeout)
		count := 0
		for relPath, img := range renderShapesIterator(config.ShapesDir(root), config, opts) {
			relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath)) + "." + format
			if err := render.WriteFile(filepath.Join(outDir, relPath), img, format); err != nil {
				return err
			}
			count++
		}
		if shapes := countShapes(config.ShapesDir(root)); count != shapes {
			return fmt.Errorf("rendered %d of %d shape files", count, shapes)
		}

		fmt.Printf("\n✅ Rendered %d shape files into %s\n", count, outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file, or output directory when rendering the project")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "Image format (qoi/png), defaults to the project setting")
	renderCmd.Flags().IntVar(&renderWidth, "width", 0, "Image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Image height in pixels")
	renderCmd.Flags().Float64SliceVarP(&renderOffsets, "distance", "d", nil, "Offset distances to draw, defaults to the project setting")
	renderCmd.Flags().BoolVarP(&renderExterior, "exterior", "e", false, "Draw offsets outside the polygons")
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", 30*time.Second, "Timeout per shape file")
}

func renderOptions(cmd *cobra.Command, config *project.Config) (render.Options, string) {
	opts := render.Options{
		Width:    config.Render.Width,
		Height:   config.Render.Height,
		Padding:  config.Render.Padding,
		Offsets:  config.Offsets,
		Exterior: renderExterior,
	}
	if renderWidth > 0 {
		opts.Width = renderWidth
	}
	if renderHeight > 0 {
		opts.Height = renderHeight
	}
	if cmd.Flags().Changed("distance") {
		opts.Offsets = renderOffsets
	}
	format := config.Render.Format
	if renderFormat != "" {
		format = renderFormat
	}
	return opts, format
}

func renderFile(path string, config *project.Config, opts render.Options) (image.Image, error) {
	doc := shape.New()
	if err := doc.Load(path); err != nil {
		return nil, err
	}
	scene, err := render.NewScene(doc.Geom(), config.Kernel(), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scene.Draw(opts), nil
}

func countShapes(dir string) int {
	n := 0
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && shape.IsShapeFile(path) {
			n++
		}
		return nil
	})
	return n
}

// renderShapesIterator yields (relativePath, image) pairs for each shape file
// under shapesDir, with a timeout per file. Iteration stops at the first
// failure.
func renderShapesIterator(shapesDir string, config *project.Config, opts render.Options) iter.Seq2[string, image.Image] {
	return func(yield func(string, image.Image) bool) {
		var matches []string
		err := filepath.Walk(shapesDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && shape.IsShapeFile(path) {
				matches = append(matches, path)
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			fmt.Printf("Error walking shapes directory: %v\n", err)
			return
		}

		for _, path := range matches {
			ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)

			type result struct {
				relPath string
				img     image.Image
				err     error
			}
			resultChan := make(chan result, 1)

			go func() {
				img, err := renderFile(path, config, opts)
				if err != nil {
					resultChan <- result{err: err}
					return
				}
				relPath, err := filepath.Rel(shapesDir, path)
				if err != nil {
					resultChan <- result{err: fmt.Errorf("getting relative path for %s: %w", path, err)}
					return
				}
				resultChan <- result{relPath: relPath, img: img}
			}()

			select {
			case <-ctx.Done():
				fmt.Printf("ERROR: Rendering timed out after %s: %s\n", renderTimeout, path)
				cancel()
				return
			case res := <-resultChan:
				cancel()
				if res.err != nil {
					fmt.Printf("ERROR: %v\n", res.err)
					return
				}
				fmt.Printf("  Rendered: %s -> %s\n", filepath.Base(path), res.relPath)
				if !yield(res.relPath, res.img) {
					return
				}
			}
		}
	}
}
