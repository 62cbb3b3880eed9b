package geom

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Orientation is the turn direction of an ordered point triple.
type Orientation int

const (
	Clockwise        Orientation = -1
	Collinear        Orientation = 0
	CounterClockwise Orientation = 1
)

// Kernel supplies every predicate and construction the skeleton engine
// needs. Implementations decide how exact their arithmetic is.
type Kernel interface {
	// Equal reports whether two points coincide.
	Equal(a, b Point) bool
	// Orientation classifies the turn a→b→c.
	Orientation(a, b, c Point) Orientation
	// SquaredDistance returns |a-b|².
	SquaredDistance(a, b Point) float64
	// OnSegment reports whether p lies on the closed segment ab.
	OnSegment(p, a, b Point) bool
	// Bisector returns the velocity of a vertex sitting between two offset
	// lines, both moving along their normals at unit speed. It reports false
	// when the lines are antiparallel and no finite velocity exists.
	Bisector(in, out Line) (Vec, bool)
	// Meet returns the time at which two rays coincide.
	Meet(a, b Ray) (float64, bool)
	// Hit returns the time at which a ray reaches the offset line l while l
	// moves along its normal, approaching from the front.
	Hit(r Ray, l Line) (float64, bool)
	// CompareTime orders two event times, returning 0 when they are equal
	// within the kernel's tolerance.
	CompareTime(s, t float64) int
}

// DefaultEpsilon is the tolerance used by a zero FloatKernel.
const DefaultEpsilon = 1e-9

// FloatKernel is a float64 kernel with an absolute/relative tolerance.
type FloatKernel struct {
	Epsilon float64
}

// NewFloatKernel returns a kernel with the given tolerance, or the default
// one when eps is not positive.
func NewFloatKernel(eps float64) FloatKernel {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	return FloatKernel{Epsilon: eps}
}

func (k FloatKernel) eps() float64 {
	if k.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return k.Epsilon
}

// Equal compares within Epsilon scaled by the magnitude of the coordinates.
func (k FloatKernel) Equal(a, b Point) bool {
	scale := math.Max(1, math.Max(math.Max(math.Abs(a.X), math.Abs(a.Y)), math.Max(math.Abs(b.X), math.Abs(b.Y))))
	tol := k.eps() * scale
	return r2.Norm2(r2.Sub(a, b)) <= tol*tol
}

func (k FloatKernel) Orientation(a, b, c Point) Orientation {
	cross := r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
	switch {
	case scalar.EqualWithinAbs(cross, 0, k.eps()):
		return Collinear
	case cross > 0:
		return CounterClockwise
	default:
		return Clockwise
	}
}

func (k FloatKernel) SquaredDistance(a, b Point) float64 {
	return r2.Norm2(r2.Sub(a, b))
}

func (k FloatKernel) OnSegment(p, a, b Point) bool {
	ab := r2.Sub(b, a)
	l2 := r2.Norm2(ab)
	if l2 <= k.eps()*k.eps() {
		return k.Equal(p, a)
	}
	ap := r2.Sub(p, a)
	l := math.Sqrt(l2)
	if math.Abs(r2.Cross(ab, ap))/l > k.eps()*math.Max(1, l) {
		return false
	}
	u := r2.Dot(ap, ab) / l2
	tol := k.eps() / l
	return u >= -tol && u <= 1+tol
}

func (k FloatKernel) Bisector(in, out Line) (Vec, bool) {
	det := r2.Cross(in.Normal, out.Normal)
	if scalar.EqualWithinAbs(det, 0, k.eps()) {
		if r2.Dot(in.Normal, out.Normal) > 0 {
			// collinear edges: the vertex moves with the shared normal
			return in.Normal, true
		}
		return Vec{}, false
	}
	return Vec{
		X: (out.Normal.Y - in.Normal.Y) / det,
		Y: (in.Normal.X - out.Normal.X) / det,
	}, true
}

func (k FloatKernel) Meet(a, b Ray) (float64, bool) {
	baseA := r2.Sub(a.Origin, r2.Scale(a.Birth, a.Velocity))
	baseB := r2.Sub(b.Origin, r2.Scale(b.Birth, b.Velocity))
	d0 := r2.Sub(baseB, baseA)
	dv := r2.Sub(b.Velocity, a.Velocity)
	n2 := r2.Norm2(dv)
	if n2 <= k.eps()*k.eps() {
		return 0, false
	}
	t := -r2.Dot(d0, dv) / n2
	miss := r2.Norm(r2.Add(d0, r2.Scale(t, dv)))
	if miss > math.Sqrt(k.eps())*math.Max(1, r2.Norm(d0)) {
		return 0, false
	}
	return t, !math.IsNaN(t) && !math.IsInf(t, 0)
}

func (k FloatKernel) Hit(r Ray, l Line) (float64, bool) {
	base := r2.Sub(r.Origin, r2.Scale(r.Birth, r.Velocity))
	gap := r2.Dot(l.Normal, r2.Sub(base, l.Origin))
	slope := r2.Dot(l.Normal, r.Velocity) - 1
	if slope > -k.eps() {
		return 0, false
	}
	t := -gap / slope
	return t, !math.IsNaN(t) && !math.IsInf(t, 0)
}

func (k FloatKernel) CompareTime(s, t float64) int {
	if scalar.EqualWithinAbsOrRel(s, t, k.eps(), k.eps()) {
		return 0
	}
	if s < t {
		return -1
	}
	return 1
}
