// Package geom holds the planar primitives shared by the skeleton and offset
// packages, and the numeric kernel they compute with.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in the plane.
type Point = r2.Vec

// Vec is a displacement or velocity in the plane.
type Vec = r2.Vec

// Pt is shorthand for a Point literal.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Contour is a closed ring of points. The last point connects back to the
// first; it is not repeated.
type Contour []Point

// SignedArea returns the shoelace area, positive for counter-clockwise rings.
func (c Contour) SignedArea() float64 {
	if len(c) < 3 {
		return 0
	}
	var area float64
	for i := range c {
		j := (i + 1) % len(c)
		area += r2.Cross(c[i], c[j])
	}
	return area / 2
}

// IsCCW reports whether the contour winds counter-clockwise.
func (c Contour) IsCCW() bool {
	return c.SignedArea() > 0
}

// Reversed returns a copy of the contour with the opposite winding.
func (c Contour) Reversed() Contour {
	out := make(Contour, len(c))
	for i, p := range c {
		out[len(c)-1-i] = p
	}
	return out
}

// Clone returns a copy of the contour.
func (c Contour) Clone() Contour {
	return append(Contour(nil), c...)
}

// Edge returns the directed segment from point i to its successor.
func (c Contour) Edge(i int) (Point, Point) {
	return c[i], c[(i+1)%len(c)]
}

// Contains reports whether p lies strictly inside the contour, using the
// even-odd rule. Points on the boundary are reported as outside.
func (c Contour) Contains(p Point) bool {
	inside := false
	for i := range c {
		a, b := c.Edge(i)
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds returns the axis aligned bounding box of the contour.
func (c Contour) Bounds() r2.Box {
	box := r2.Box{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range c {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
	}
	return box
}

// Polygon is an outer boundary with optional holes. The outer boundary winds
// counter-clockwise and holes wind clockwise, so the interior is always on
// the left of every directed edge.
type Polygon struct {
	Outer Contour
	Holes []Contour
}

// Contours returns the outer boundary followed by the holes.
func (p Polygon) Contours() []Contour {
	out := make([]Contour, 0, 1+len(p.Holes))
	out = append(out, p.Outer)
	return append(out, p.Holes...)
}

// Normalize returns a copy with the outer boundary counter-clockwise and all
// holes clockwise.
func (p Polygon) Normalize() Polygon {
	out := Polygon{Outer: p.Outer.Clone()}
	if !out.Outer.IsCCW() {
		out.Outer = out.Outer.Reversed()
	}
	for _, h := range p.Holes {
		if h.IsCCW() {
			h = h.Reversed()
		} else {
			h = h.Clone()
		}
		out.Holes = append(out.Holes, h)
	}
	return out
}

// Area returns the enclosed area, holes subtracted.
func (p Polygon) Area() float64 {
	area := math.Abs(p.Outer.SignedArea())
	for _, h := range p.Holes {
		area -= math.Abs(h.SignedArea())
	}
	return area
}

// Bounds returns the bounding box of the outer boundary.
func (p Polygon) Bounds() r2.Box {
	return p.Outer.Bounds()
}

// Line is the supporting line of an original edge. At time t the offset line
// is the set of points q with Normal·(q-Origin) = t.
type Line struct {
	Origin Point
	Normal Vec
}

// LineOf returns the supporting line of the directed segment a→b with its
// unit normal pointing to the left of the segment.
func LineOf(a, b Point) Line {
	d := r2.Unit(r2.Sub(b, a))
	return Line{Origin: a, Normal: Vec{X: -d.Y, Y: d.X}}
}

// Direction returns the unit direction of the line.
func (l Line) Direction() Vec {
	return Vec{X: l.Normal.Y, Y: -l.Normal.X}
}

// Ray is the trajectory of a wavefront vertex: it sits at Origin at time
// Birth and moves with Velocity afterwards.
type Ray struct {
	Origin   Point
	Velocity Vec
	Birth    float64
}

// At returns the position along the ray at time t.
func (r Ray) At(t float64) Point {
	return r2.Add(r.Origin, r2.Scale(t-r.Birth, r.Velocity))
}
