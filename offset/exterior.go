package offset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/skeleton"
)

// ErrInsufficientMargin reports an outward offset that would reach the
// bounding frame.
var ErrInsufficientMargin = errors.New("insufficient margin")

// the frame is always the first contour, so its edges come first
const frameEdges = 4

// Exterior is the skeleton of the region between a contour and a bounding
// frame around it. Slicing it yields the contour's outward offsets.
type Exterior struct {
	skel      *skeleton.Skeleton
	input     geom.Contour
	maxOffset float64
	margin    float64
}

// Margin returns how far the frame must stand off the bounding box of c so
// that no offset up to maxOffset interacts with it. Every vertex of c moves
// outward at the speed of its bisector; the margin covers the farthest one
// plus the frame's own advance.
func Margin(c geom.Contour, maxOffset float64, k geom.Kernel) (float64, error) {
	if math.IsNaN(maxOffset) || math.IsInf(maxOffset, 0) || maxOffset <= 0 {
		return 0, fmt.Errorf("%w: max offset %g", skeleton.ErrInvalidInput, maxOffset)
	}
	if len(c) < 3 {
		return 0, fmt.Errorf("%w: contour has %d points", skeleton.ErrInvalidInput, len(c))
	}
	if k == nil {
		k = geom.NewFloatKernel(0)
	}
	// walked clockwise the left normals face away from the contour
	ring := c
	if ring.IsCCW() {
		ring = ring.Reversed()
	}
	n := len(ring)
	reach := 0.0
	for i := range ring {
		in := geom.LineOf(ring[(i+n-1)%n], ring[i])
		out := geom.LineOf(ring[i], ring[(i+1)%n])
		v, ok := k.Bisector(in, out)
		if !ok {
			return 0, fmt.Errorf("%w: vertex %d has no finite offset", ErrInsufficientMargin, i)
		}
		reach = math.Max(reach, r2.Norm(v)*maxOffset)
	}
	box := c.Bounds()
	diag := r2.Norm(r2.Sub(box.Max, box.Min))
	return 1.05*(reach+maxOffset) + 0.05*diag, nil
}

// NewExterior frames c and computes the skeleton of the region between the
// frame and c, up to maxOffset. c may have either orientation; edge indices
// in the results refer to its counter-clockwise form.
func NewExterior(c geom.Contour, maxOffset float64, k geom.Kernel) (*Exterior, error) {
	if k == nil {
		k = geom.NewFloatKernel(0)
	}
	m, err := Margin(c, maxOffset, k)
	if err != nil {
		return nil, err
	}
	input := c.Clone()
	if !input.IsCCW() {
		input = input.Reversed()
	}
	box := input.Bounds()
	frame := geom.Contour{
		geom.Pt(box.Min.X-m, box.Min.Y-m),
		geom.Pt(box.Max.X+m, box.Min.Y-m),
		geom.Pt(box.Max.X+m, box.Max.Y+m),
		geom.Pt(box.Min.X-m, box.Max.Y+m),
	}
	p := geom.Polygon{Outer: frame, Holes: []geom.Contour{input.Reversed()}}
	s, err := skeleton.Build(p, k, skeleton.WithMaxTime(maxOffset))
	if err != nil {
		return nil, err
	}
	skeleton.Logger().Debug("exterior skeleton",
		"margin", m,
		"max_offset", maxOffset,
		"events", len(s.Events()),
	)
	return &Exterior{skel: s, input: input, maxOffset: maxOffset, margin: m}, nil
}

// Skeleton returns the framed skeleton.
func (x *Exterior) Skeleton() *skeleton.Skeleton { return x.skel }

// Margin returns the distance between the input's bounding box and the frame.
func (x *Exterior) Margin() float64 { return x.margin }

// MaxOffset returns the largest distance Offset accepts.
func (x *Exterior) MaxOffset() float64 { return x.maxOffset }

// Offset returns the contours at distance d outside the input, counter
// clockwise. Rings that belong to the frame are dropped.
func (x *Exterior) Offset(d float64) ([]Contour, error) {
	if math.IsNaN(d) || d < 0 {
		return nil, fmt.Errorf("%w: offset distance %g", skeleton.ErrInvalidInput, d)
	}
	if x.skel.Kernel().CompareTime(d, x.maxOffset) > 0 {
		return nil, fmt.Errorf("%w: distance %g exceeds %g", ErrInsufficientMargin, d, x.maxOffset)
	}
	if d == 0 {
		c := Contour{Points: x.input.Clone(), Edges: make([]int, len(x.input))}
		for i := range c.Edges {
			c.Edges[i] = i
		}
		return []Contour{c}, nil
	}
	cs, err := Interior(x.skel, d)
	if err != nil {
		return nil, err
	}
	n := len(x.input)
	var out []Contour
	for _, c := range cs {
		frame := 0
		for _, e := range c.Edges {
			if e < frameEdges {
				frame++
			}
		}
		switch frame {
		case len(c.Edges):
			continue
		case 0:
		default:
			return nil, fmt.Errorf("%w: offset %g reaches the frame", ErrInsufficientMargin, d)
		}
		// hole edge j runs backwards along input edge n-2-j
		out = append(out, reverse(c, func(e int) int {
			return ((n-2-(e-frameEdges))%n + n) % n
		}))
	}
	return out, nil
}

// reverse flips the orientation of c and renames its edges through edge.
// Points[i]→Points[i+1] of the result runs back along the edge that led
// into the matching point of c.
func reverse(c Contour, edge func(int) int) Contour {
	m := len(c.Points)
	out := Contour{Points: c.Points.Reversed(), Edges: make([]int, m)}
	for i := range out.Edges {
		out.Edges[i] = edge(c.Edges[((m-2-i)%m+m)%m])
	}
	return out
}
