package offset

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/skeleton"
)

// Inward returns the offset of p at distance d inside its interior.
func Inward(p geom.Polygon, d float64, k geom.Kernel) ([]Contour, error) {
	s, err := skeleton.Build(p.Normalize(), k)
	if err != nil {
		return nil, err
	}
	return Interior(s, d)
}

// Outward returns the offset of p at distance d outside its region: the
// outer boundary grows through an exterior skeleton and every hole shrinks
// through the interior skeleton of its own area. Edge indices follow
// p.Normalize().Contours(). The parts are computed in parallel.
func Outward(p geom.Polygon, d float64, k geom.Kernel) ([]Contour, error) {
	if math.IsNaN(d) || d < 0 {
		return nil, fmt.Errorf("%w: offset distance %g", skeleton.ErrInvalidInput, d)
	}
	if k == nil {
		k = geom.NewFloatKernel(0)
	}
	p = p.Normalize()
	if err := skeleton.Validate(p, k); err != nil {
		return nil, err
	}
	if d == 0 {
		return contoursOf(p.Contours()), nil
	}

	parts := make([][]Contour, 1+len(p.Holes))
	var g errgroup.Group
	g.Go(func() error {
		x, err := NewExterior(p.Outer, d, k)
		if err != nil {
			return fmt.Errorf("outer boundary: %w", err)
		}
		cs, err := x.Offset(d)
		if err != nil {
			return fmt.Errorf("outer boundary: %w", err)
		}
		parts[0] = cs
		return nil
	})
	base := len(p.Outer)
	for i, h := range p.Holes {
		off, m := base, len(h)
		base += m
		g.Go(func() error {
			s, err := skeleton.Build(geom.Polygon{Outer: h.Reversed()}, k)
			if err != nil {
				return fmt.Errorf("hole %d: %w", i, err)
			}
			cs, err := Interior(s, d)
			if err != nil {
				return fmt.Errorf("hole %d: %w", i, err)
			}
			for _, c := range cs {
				parts[i+1] = append(parts[i+1], reverse(c, func(e int) int {
					return off + ((m-2-e)%m+m)%m
				}))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var out []Contour
	for _, cs := range parts {
		out = append(out, cs...)
	}
	return out, nil
}

// Arrange groups offset contours into polygons. Counter-clockwise rings
// become outer boundaries and every clockwise ring is assigned to the
// smallest outer boundary that contains it. Holes without an enclosing
// boundary are dropped.
func Arrange(cs []Contour) []geom.Polygon {
	type outer struct {
		index int
		area  float64
	}
	var outers []outer
	for i, c := range cs {
		if c.Points.IsCCW() {
			outers = append(outers, outer{index: i, area: c.Points.SignedArea()})
		}
	}
	sort.SliceStable(outers, func(i, j int) bool { return outers[i].area < outers[j].area })

	polys := make(map[int]*geom.Polygon, len(outers))
	for _, o := range outers {
		polys[o.index] = &geom.Polygon{Outer: cs[o.index].Points}
	}
	for _, c := range cs {
		if c.Points.IsCCW() || len(c.Points) == 0 {
			continue
		}
		for _, o := range outers {
			if containsRing(cs[o.index].Points, c.Points) {
				p := polys[o.index]
				p.Holes = append(p.Holes, c.Points)
				break
			}
		}
	}

	out := make([]geom.Polygon, 0, len(outers))
	for i, c := range cs {
		if c.Points.IsCCW() {
			out = append(out, *polys[i])
		}
	}
	return out
}

// containsRing reports whether some vertex of inner lies strictly inside
// outer. Offset rings never cross, so one interior vertex decides.
func containsRing(outer, inner geom.Contour) bool {
	for _, p := range inner {
		if outer.Contains(p) {
			return true
		}
	}
	return false
}
