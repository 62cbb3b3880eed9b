package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/project"
	"github.com/bloodmagesoftware/skel/shape"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new skel project in the current directory",
	Long:  `Writes skel.yaml with default settings and a shapes directory containing an example shape.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if _, err := os.Stat(filepath.Join(wd, project.ConfigFileName)); err == nil {
			return fmt.Errorf("%s already exists", project.ConfigFileName)
		}

		name := filepath.Base(wd)
		if len(args) == 1 {
			name = args[0]
		}
		config := project.Default(name)
		if err := config.Save(wd); err != nil {
			return err
		}

		example := filepath.Join(config.ShapesDir(wd), "example.yaml")
		if _, err := os.Stat(example); os.IsNotExist(err) {
			doc := shape.New()
			doc.Polygons = append(doc.Polygons, shape.FromGeom("courtyard", exampleShape()))
			if err := doc.Save(example); err != nil {
				return err
			}
		}

		fmt.Printf("✅ Created project %s\n", name)
		return nil
	},
}

// exampleShape is an L-shaped building with a courtyard.
func exampleShape() geom.Polygon {
	return geom.Polygon{
		Outer: geom.Contour{
			geom.Pt(0, 0), geom.Pt(12, 0), geom.Pt(12, 4),
			geom.Pt(6, 4), geom.Pt(6, 10), geom.Pt(0, 10),
		},
		Holes: []geom.Contour{
			{geom.Pt(1, 1), geom.Pt(1, 3), geom.Pt(3, 3), geom.Pt(3, 1)},
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
