package skeleton

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
)

// Validate checks that p is a simple polygon with holes: every contour has
// at least three distinct points, the outer boundary winds counter-clockwise,
// holes wind clockwise and lie inside the outer boundary, and no two edges
// cross or touch except at shared vertices.
func Validate(p geom.Polygon, k geom.Kernel) error {
	if k == nil {
		k = geom.FloatKernel{}
	}
	contours := p.Contours()
	for ci, c := range contours {
		if err := validateContour(ci, c, k); err != nil {
			return err
		}
		area := c.SignedArea()
		switch {
		case ci == 0 && area <= 0:
			return invalid(ci, 0, "outer boundary must wind counter-clockwise")
		case ci > 0 && area >= 0:
			return invalid(ci, 0, "hole must wind clockwise")
		}
	}
	if err := checkDuplicates(contours, k); err != nil {
		return err
	}
	if err := checkCrossings(contours, contours, true, k); err != nil {
		return err
	}
	for hi, h := range p.Holes {
		if !p.Outer.Contains(h[0]) {
			return invalid(hi+1, 0, "hole lies outside the outer boundary")
		}
		for hj, other := range p.Holes {
			if hi != hj && other.Contains(h[0]) {
				return invalid(hi+1, 0, "hole is nested inside hole %d", hj+1)
			}
		}
	}
	return nil
}

// ValidateDisjoint validates every polygon and checks that no two of them
// overlap.
func ValidateDisjoint(ps []geom.Polygon, k geom.Kernel) error {
	for i, p := range ps {
		if err := Validate(p, k); err != nil {
			return fmt.Errorf("polygon %d: %w", i, err)
		}
	}
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			if err := checkCrossings(ps[i].Contours(), ps[j].Contours(), false, k); err != nil {
				return fmt.Errorf("polygons %d and %d overlap: %w", i, j, err)
			}
			if covers(ps[i], ps[j].Outer[0]) || covers(ps[j], ps[i].Outer[0]) {
				return fmt.Errorf("polygons %d and %d overlap: %w", i, j, ErrInvalidInput)
			}
		}
	}
	return nil
}

// covers reports whether q lies in the interior of p.
func covers(p geom.Polygon, q geom.Point) bool {
	if !p.Outer.Contains(q) {
		return false
	}
	for _, h := range p.Holes {
		if h.Contains(q) {
			return false
		}
	}
	return true
}

func validateContour(ci int, c geom.Contour, k geom.Kernel) error {
	if len(c) < 3 {
		return invalid(ci, 0, "contour needs at least 3 points, got %d", len(c))
	}
	for i, pt := range c {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return invalid(ci, i, "coordinate is not finite")
		}
	}
	n := len(c)
	for i := range c {
		prev, cur, next := c[(i+n-1)%n], c[i], c[(i+1)%n]
		if k.Equal(cur, next) {
			return invalid(ci, i, "duplicate consecutive point")
		}
		// a straight vertex is fine, a vertex that doubles back is a spike
		if k.Orientation(prev, cur, next) == geom.Collinear && r2.Dot(r2.Sub(cur, prev), r2.Sub(next, cur)) < 0 {
			return invalid(ci, i, "degenerate spike")
		}
	}
	return nil
}

func checkDuplicates(contours []geom.Contour, k geom.Kernel) error {
	for ci, c := range contours {
		for i, pt := range c {
			for cj := ci; cj < len(contours); cj++ {
				start := 0
				if cj == ci {
					start = i + 1
				}
				for j := start; j < len(contours[cj]); j++ {
					if k.Equal(pt, contours[cj][j]) {
						return invalid(cj, j, "duplicate of contour %d vertex %d", ci, i)
					}
				}
			}
		}
	}
	return nil
}

// checkCrossings tests every edge of as against every edge of bs. When same
// is set the two sets are the same polygon and edges sharing a vertex are
// skipped.
func checkCrossings(as, bs []geom.Contour, same bool, k geom.Kernel) error {
	for ci, a := range as {
		for i := range a {
			p1, p2 := a.Edge(i)
			cStart := 0
			if same {
				cStart = ci
			}
			for cj := cStart; cj < len(bs); cj++ {
				b := bs[cj]
				for j := range b {
					if same && cj == ci && (j <= i || adjacent(i, j, len(a))) {
						continue
					}
					p3, p4 := b.Edge(j)
					if segmentsIntersect(p1, p2, p3, p4, k) {
						return invalid(ci, i, "edge crosses contour %d edge %d", cj, j)
					}
				}
			}
		}
	}
	return nil
}

func adjacent(i, j, n int) bool {
	return (i+1)%n == j || (j+1)%n == i
}

func segmentsIntersect(p1, p2, p3, p4 geom.Point, k geom.Kernel) bool {
	o1 := k.Orientation(p1, p2, p3)
	o2 := k.Orientation(p1, p2, p4)
	o3 := k.Orientation(p3, p4, p1)
	o4 := k.Orientation(p3, p4, p2)
	if o1 != o2 && o3 != o4 && o1 != geom.Collinear && o2 != geom.Collinear &&
		o3 != geom.Collinear && o4 != geom.Collinear {
		return true
	}
	switch {
	case o1 == geom.Collinear && k.OnSegment(p3, p1, p2):
		return true
	case o2 == geom.Collinear && k.OnSegment(p4, p1, p2):
		return true
	case o3 == geom.Collinear && k.OnSegment(p1, p3, p4):
		return true
	case o4 == geom.Collinear && k.OnSegment(p2, p3, p4):
		return true
	}
	return false
}
