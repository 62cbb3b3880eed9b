package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bloodmagesoftware/skel/shape"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var (
	skeletonMaxTime float64
	skeletonDump    bool
)

var skeletonCmd = &cobra.Command{
	Use:   "skeleton {shape-file}",
	Short: "Compute the straight skeleton of a shape file",
	Long:  `Builds the straight skeleton of every polygon in a shape file and prints a summary, or with --dump the nodes, arcs and events as YAML.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, config, err := loadProject()
		if err != nil {
			return err
		}

		doc := shape.New()
		if err := doc.Load(args[0]); err != nil {
			return err
		}
		doc.Normalize()

		var opts []skeleton.Option
		if cmd.Flags().Changed("max-time") {
			opts = append(opts, skeleton.WithMaxTime(skeletonMaxTime))
		}
		s, err := skeleton.BuildAll(doc.Geom(), config.Kernel(), opts...)
		if err != nil {
			return err
		}

		if skeletonDump {
			encoder := yaml.NewEncoder(os.Stdout)
			defer encoder.Close()
			encoder.SetIndent(4)
			return encoder.Encode(dumpOf(s))
		}

		fmt.Printf("Polygons:    %d\n", len(doc.Polygons))
		fmt.Printf("Edges:       %d\n", len(s.Edges()))
		fmt.Printf("Nodes:       %d\n", len(s.Nodes()))
		fmt.Printf("Arcs:        %d\n", len(s.Arcs()))
		counts := make(map[skeleton.EventKind]int)
		for _, ev := range s.Events() {
			counts[ev.Kind]++
		}
		fmt.Printf("Events:      %d\n", len(s.Events()))
		for _, kind := range []skeleton.EventKind{skeleton.EdgeCollapse, skeleton.Split, skeleton.MultiCollapse, skeleton.VertexCollision} {
			if counts[kind] > 0 {
				fmt.Printf("  %-16s %d\n", kind.String()+":", counts[kind])
			}
		}
		if s.Partial() {
			fmt.Printf("Partial:     up to %g\n", s.MaxTime())
		} else {
			fmt.Printf("Convergence: %g\n", s.ConvergenceTime())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(skeletonCmd)
	skeletonCmd.Flags().Float64Var(&skeletonMaxTime, "max-time", 0, "Stop propagation at this time and leave open arcs")
	skeletonCmd.Flags().BoolVar(&skeletonDump, "dump", false, "Print the full skeleton as YAML")
}

type (
	skeletonDoc struct {
		Convergence float64    `yaml:"convergence,omitempty"`
		MaxTime     float64    `yaml:"max_time,omitempty"`
		Nodes       []nodeDoc  `yaml:"nodes"`
		Arcs        []arcDoc   `yaml:"arcs"`
		Events      []eventDoc `yaml:"events"`
	}

	nodeDoc struct {
		X    float64 `yaml:"x"`
		Y    float64 `yaml:"y"`
		Time float64 `yaml:"time"`
	}

	arcDoc struct {
		Kind   string `yaml:"kind"`
		Source int    `yaml:"source"`
		Target int    `yaml:"target"` // -1 for open arcs
		Edges  []int  `yaml:"edges,flow"`
	}

	eventDoc struct {
		Kind string  `yaml:"kind"`
		Time float64 `yaml:"time"`
		X    float64 `yaml:"x"`
		Y    float64 `yaml:"y"`
		Node int     `yaml:"node"`
	}
)

func dumpOf(s *skeleton.Skeleton) skeletonDoc {
	var doc skeletonDoc
	if s.Partial() {
		doc.MaxTime = s.MaxTime()
	} else {
		doc.Convergence = s.ConvergenceTime()
	}
	for _, n := range s.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeDoc{X: n.Pos.X, Y: n.Pos.Y, Time: n.Time})
	}
	for _, a := range s.Arcs() {
		ad := arcDoc{Kind: a.Kind.String(), Source: int(a.Source), Target: int(a.Target), Edges: []int{a.Edges[0]}}
		if a.Edges[1] != skeleton.NoEdge {
			ad.Edges = append(ad.Edges, a.Edges[1])
		}
		doc.Arcs = append(doc.Arcs, ad)
	}
	for _, ev := range s.Events() {
		doc.Events = append(doc.Events, eventDoc{
			Kind: ev.Kind.String(),
			Time: ev.Time,
			X:    ev.Point.X,
			Y:    ev.Point.Y,
			Node: int(ev.Node),
		})
	}
	return doc
}
