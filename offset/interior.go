// Package offset slices straight skeletons into offset contours, inward
// directly and outward through a bounding frame.
package offset

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/skeleton"
)

// Contour is one closed offset ring. Edges[i] is the input edge whose offset
// runs from Points[i] to Points[i+1].
type Contour struct {
	Points geom.Contour
	Edges  []int
}

// Interior returns the wavefront of s at time d: one closed ring per
// boundary component still present at d, in a fixed order. d = 0 returns
// the input contours. At or past the convergence time the result is empty.
// When d equals an event time the topology just before the event is used.
func Interior(s *skeleton.Skeleton, d float64) ([]Contour, error) {
	if math.IsNaN(d) || d < 0 {
		return nil, fmt.Errorf("%w: offset distance %g", skeleton.ErrInvalidInput, d)
	}
	if d == 0 {
		return contoursOf(s.Contours()), nil
	}
	if !s.Partial() && s.Kernel().CompareTime(d, s.ConvergenceTime()) >= 0 {
		return nil, nil
	}
	if s.Partial() && s.Kernel().CompareTime(d, s.MaxTime()) > 0 {
		return nil, fmt.Errorf("%w: distance %g lies beyond the partial skeleton bound %g",
			skeleton.ErrInvalidInput, d, s.MaxTime())
	}

	k := s.Kernel()
	fronts := s.Fronts()
	visited := make([]bool, len(fronts))
	var out []Contour
	for start, f := range fronts {
		if visited[start] || !f.Alive(d) {
			continue
		}
		var c Contour
		cur := start
		for steps := 0; !visited[cur]; steps++ {
			if steps > len(fronts) {
				return nil, fmt.Errorf("%w: wavefront at %g does not close", skeleton.ErrNumericDegeneracy, d)
			}
			visited[cur] = true
			c.Points = append(c.Points, fronts[cur].Ray.At(d))
			c.Edges = append(c.Edges, fronts[cur].Out)
			next := fronts[cur].Next(d)
			if next < 0 || !fronts[next].Alive(d) {
				return nil, fmt.Errorf("%w: wavefront vertex %d has no successor at %g",
					skeleton.ErrNumericDegeneracy, cur, d)
			}
			cur = next
		}
		if cur != start {
			return nil, fmt.Errorf("%w: wavefront at %g merges into a visited ring",
				skeleton.ErrNumericDegeneracy, d)
		}
		if c = clean(c, k); len(c.Points) > 0 {
			out = append(out, c)
		}
	}
	skeleton.Logger().Debug("interior offset", "distance", d, "contours", len(out))
	return out, nil
}

// Multi slices s at every distance in ds. The slices are independent reads
// of the immutable skeleton and run in parallel.
func Multi(s *skeleton.Skeleton, ds []float64) ([][]Contour, error) {
	out := make([][]Contour, len(ds))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, d := range ds {
		g.Go(func() error {
			cs, err := Interior(s, d)
			if err != nil {
				return fmt.Errorf("offset %g: %w", d, err)
			}
			out[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// contoursOf numbers the edges of cs consecutively.
func contoursOf(cs []geom.Contour) []Contour {
	var out []Contour
	base := 0
	for _, c := range cs {
		oc := Contour{Points: c.Clone(), Edges: make([]int, len(c))}
		for i := range c {
			oc.Edges[i] = base + i
		}
		base += len(c)
		out = append(out, oc)
	}
	return out
}

// clean removes what an event leaves behind at its own instant: repeated
// points where an edge has shrunk to nothing, and zero-width spikes where
// two edges have just met along their length. Rings with no area left are
// dropped.
func clean(c Contour, k geom.Kernel) Contour {
	pts := c.Points.Clone()
	edges := append([]int(nil), c.Edges...)
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		n := len(pts)
		for i := range pts {
			j := (i + 1) % n
			if k.Equal(pts[i], pts[j]) {
				edges[i] = edges[j]
				pts, edges = removeAt(pts, edges, j)
				changed = true
				break
			}
		}
		if changed {
			continue
		}
		for i := range pts {
			ip := (i + n - 1) % n
			prev, cur, next := pts[ip], pts[i], pts[(i+1)%n]
			if k.Orientation(prev, cur, next) != geom.Collinear || r2.Dot(r2.Sub(cur, prev), r2.Sub(next, cur)) >= 0 {
				continue
			}
			// the remaining segment prev→next runs along whichever edge
			// points the same way
			if r2.Dot(r2.Sub(next, prev), r2.Sub(cur, prev)) <= 0 {
				edges[ip] = edges[i]
			}
			pts, edges = removeAt(pts, edges, i)
			changed = true
			break
		}
	}
	if len(pts) < 3 || flat(pts, k) {
		return Contour{}
	}
	return Contour{Points: pts, Edges: edges}
}

func removeAt(pts geom.Contour, edges []int, i int) (geom.Contour, []int) {
	return append(pts[:i:i], pts[i+1:]...), append(edges[:i:i], edges[i+1:]...)
}

func flat(pts geom.Contour, k geom.Kernel) bool {
	n := len(pts)
	for i := range pts {
		if k.Orientation(pts[(i+n-1)%n], pts[i], pts[(i+1)%n]) != geom.Collinear {
			return false
		}
	}
	return true
}
