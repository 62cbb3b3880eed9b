package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/offset"
	"github.com/bloodmagesoftware/skel/shape"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var (
	offsetDistances []float64
	offsetExterior  bool
	offsetOutput    string
)

var offsetCmd = &cobra.Command{
	Use:   "offset {shape-file}",
	Short: "Compute offset contours of a shape file",
	Long: `Offsets every polygon of a shape file by each given distance, inward or with
--exterior outward, and writes the resulting polygons as a shape file. Each
result is named after its source polygon and distance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, config, err := loadProject()
		if err != nil {
			return err
		}
		ds := offsetDistances
		if len(ds) == 0 {
			ds = config.Offsets
		}
		if len(ds) == 0 {
			return errors.New("no offset distance given")
		}

		doc := shape.New()
		if err := doc.Load(args[0]); err != nil {
			return err
		}
		doc.Normalize()

		out, err := offsetDocument(doc, ds, offsetExterior, config.Kernel())
		if err != nil {
			return err
		}

		if offsetOutput == "" {
			return out.Encode(os.Stdout, shape.YAML)
		}
		if err := out.Save(offsetOutput); err != nil {
			return err
		}
		fmt.Printf("✅ Wrote %d polygons to %s\n", len(out.Polygons), offsetOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(offsetCmd)
	offsetCmd.Flags().Float64SliceVarP(&offsetDistances, "distance", "d", nil, "Offset distance, may be repeated")
	offsetCmd.Flags().BoolVarP(&offsetExterior, "exterior", "e", false, "Offset outward instead of inward")
	offsetCmd.Flags().StringVarP(&offsetOutput, "output", "o", "", "Output shape file (.yaml/.toml), stdout if empty")
}

// offsetDocument returns the offsets of every polygon of doc at every
// distance in ds, grouped into polygons.
func offsetDocument(doc *shape.Document, ds []float64, exterior bool, k geom.Kernel) (*shape.Document, error) {
	out := shape.New()
	for i, p := range doc.Polygons {
		name := p.Name
		if name == "" {
			name = "polygon" + strconv.Itoa(i)
		}
		gp := p.Geom()

		var byDistance [][]offset.Contour
		if exterior {
			for _, d := range ds {
				cs, err := offset.Outward(gp, d, k)
				if err != nil {
					return nil, fmt.Errorf("%s offset %g: %w", name, d, err)
				}
				byDistance = append(byDistance, cs)
			}
		} else {
			s, err := skeleton.Build(gp, k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			byDistance, err = offset.Multi(s, ds)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}

		for j, cs := range byDistance {
			for _, res := range offset.Arrange(cs) {
				label := name + "@" + strconv.FormatFloat(ds[j], 'g', -1, 64)
				out.Polygons = append(out.Polygons, shape.FromGeom(label, res))
			}
		}
	}
	return out, nil
}
