// Package skeleton computes the straight skeleton of polygons with holes by
// simulating the inward moving wavefront of their edges.
package skeleton

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bloodmagesoftware/skel/geom"
)

type config struct {
	maxTime float64
	bounded bool
}

// Option configures a construction.
type Option func(*config)

// WithMaxTime stops the simulation once the next event lies past t. The
// result is a partial skeleton whose unresolved vertices end in open arcs.
func WithMaxTime(t float64) Option {
	return func(c *config) {
		c.maxTime = t
		c.bounded = true
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{maxTime: math.Inf(1)}
	for _, opt := range opts {
		opt(&c)
	}
	if c.bounded && !(c.maxTime > 0) {
		return c, fmt.Errorf("%w: max time must be positive, got %g", ErrInvalidInput, c.maxTime)
	}
	return c, nil
}

// Build validates p and computes its straight skeleton. A nil kernel selects
// the default float kernel. Build either returns a complete skeleton (or a
// partial one when WithMaxTime is given) or an error; it never returns a
// half-built graph.
func Build(p geom.Polygon, k geom.Kernel, opts ...Option) (*Skeleton, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if k == nil {
		k = geom.NewFloatKernel(0)
	}
	if err := Validate(p, k); err != nil {
		return nil, err
	}
	return build(p, k, cfg)
}

func build(p geom.Polygon, k geom.Kernel, cfg config) (*Skeleton, error) {
	e := newEngine(p, k, cfg.maxTime)
	if err := e.run(); err != nil {
		return nil, err
	}
	s := e.skeleton(e.alive > 0)
	Logger().Debug("skeleton built",
		"nodes", len(s.nodes),
		"arcs", len(s.arcs),
		"events", len(s.events),
		"partial", s.partial,
	)
	return s, nil
}

// BuildAll computes the skeletons of several disjoint polygons in parallel
// and merges them into one skeleton. Edges, nodes and arcs are numbered
// polygon by polygon in input order.
func BuildAll(ps []geom.Polygon, k geom.Kernel, opts ...Option) (*Skeleton, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if k == nil {
		k = geom.NewFloatKernel(0)
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no polygons", ErrInvalidInput)
	}
	if err := ValidateDisjoint(ps, k); err != nil {
		return nil, err
	}

	parts := make([]*Skeleton, len(ps))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range ps {
		g.Go(func() error {
			s, err := build(p, k, cfg)
			if err != nil {
				return fmt.Errorf("polygon %d: %w", i, err)
			}
			parts[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(k, cfg, parts), nil
}

// merge concatenates independent skeletons, shifting every handle.
func merge(k geom.Kernel, cfg config, parts []*Skeleton) *Skeleton {
	if len(parts) == 1 {
		return parts[0]
	}
	out := &Skeleton{kernel: k, maxTime: cfg.maxTime}
	for _, s := range parts {
		nodeOff := NodeID(len(out.nodes))
		arcOff := ArcID(len(out.arcs))
		edgeOff := len(out.edges)
		frontOff := len(out.fronts)
		contourOff := len(out.contours)

		shiftNode := func(n NodeID) NodeID {
			if n == NoNode {
				return n
			}
			return n + nodeOff
		}
		shiftArc := func(a ArcID) ArcID {
			if a == NoArc {
				return a
			}
			return a + arcOff
		}
		shiftEdge := func(e int) int {
			if e == NoEdge {
				return e
			}
			return e + edgeOff
		}

		out.contours = append(out.contours, s.contours...)
		for _, e := range s.edges {
			e.Contour += contourOff
			e.Border = shiftArc(e.Border)
			out.edges = append(out.edges, e)
		}
		for _, n := range s.nodes {
			arcs := make([]ArcID, len(n.Arcs))
			for i, a := range n.Arcs {
				arcs[i] = shiftArc(a)
			}
			n.Arcs = arcs
			out.nodes = append(out.nodes, n)
		}
		for _, a := range s.arcs {
			a.Source = shiftNode(a.Source)
			a.Target = shiftNode(a.Target)
			a.Edges = [2]int{shiftEdge(a.Edges[0]), shiftEdge(a.Edges[1])}
			out.arcs = append(out.arcs, a)
		}
		for _, f := range s.fronts {
			f.In = shiftEdge(f.In)
			f.Out = shiftEdge(f.Out)
			f.Arc = shiftArc(f.Arc)
			links := make([]link, len(f.links))
			for i, l := range f.links {
				links[i] = link{T: l.T, Next: l.Next + frontOff}
			}
			f.links = links
			out.fronts = append(out.fronts, f)
		}
		for _, ev := range s.events {
			ev.Node = shiftNode(ev.Node)
			out.events = append(out.events, ev)
		}
		out.partial = out.partial || s.partial
		out.convergence = math.Max(out.convergence, s.convergence)
	}
	sort.SliceStable(out.events, func(i, j int) bool { return out.events[i].Time < out.events[j].Time })
	out.indexEdges()
	return out
}
