package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, side float64) Contour {
	return Contour{Pt(x0, y0), Pt(x0+side, y0), Pt(x0+side, y0+side), Pt(x0, y0+side)}
}

func TestContourArea(t *testing.T) {
	c := square(0, 0, 2)
	assert.InDelta(t, 4, c.SignedArea(), 1e-12)
	assert.True(t, c.IsCCW())
	assert.InDelta(t, -4, c.Reversed().SignedArea(), 1e-12)
	assert.False(t, c.Reversed().IsCCW())
}

func TestContourContains(t *testing.T) {
	c := square(0, 0, 2)
	assert.True(t, c.Contains(Pt(1, 1)))
	assert.False(t, c.Contains(Pt(3, 1)))
	assert.False(t, c.Contains(Pt(-0.5, 1)))
}

func TestPolygonNormalize(t *testing.T) {
	p := Polygon{
		Outer: square(0, 0, 10).Reversed(),
		Holes: []Contour{square(4, 4, 2)},
	}
	n := p.Normalize()
	assert.True(t, n.Outer.IsCCW())
	require.Len(t, n.Holes, 1)
	assert.False(t, n.Holes[0].IsCCW())
	assert.InDelta(t, 96, n.Area(), 1e-9)
	// the input is left untouched
	assert.False(t, p.Outer.IsCCW())
}

func TestBounds(t *testing.T) {
	b := Contour{Pt(1, 2), Pt(5, -1), Pt(3, 7)}.Bounds()
	assert.Equal(t, Pt(1, -1), b.Min)
	assert.Equal(t, Pt(5, 7), b.Max)
}

func TestLineOf(t *testing.T) {
	l := LineOf(Pt(0, 0), Pt(4, 0))
	assert.InDelta(t, 0, l.Normal.X, 1e-12)
	assert.InDelta(t, 1, l.Normal.Y, 1e-12)
	assert.InDelta(t, 1, l.Direction().X, 1e-12)
}

func TestRayAt(t *testing.T) {
	r := Ray{Origin: Pt(1, 1), Velocity: Vec{X: 1, Y: -1}, Birth: 0.5}
	assert.Equal(t, Pt(1.5, 0.5), r.At(1))
}

func TestKernelBisector(t *testing.T) {
	k := NewFloatKernel(0)
	tests := []struct {
		name    string
		in, out Line
		want    Vec
		ok      bool
	}{
		{
			name: "convex corner",
			in:   LineOf(Pt(0, 1), Pt(0, 0)),
			out:  LineOf(Pt(0, 0), Pt(1, 0)),
			want: Vec{X: 1, Y: 1},
			ok:   true,
		},
		{
			name: "reflex corner",
			in:   LineOf(Pt(2, 1), Pt(1, 1)),
			out:  LineOf(Pt(1, 1), Pt(1, 2)),
			want: Vec{X: -1, Y: -1},
			ok:   true,
		},
		{
			name: "collinear",
			in:   LineOf(Pt(0, 0), Pt(1, 0)),
			out:  LineOf(Pt(1, 0), Pt(2, 0)),
			want: Vec{X: 0, Y: 1},
			ok:   true,
		},
		{
			name: "antiparallel",
			in:   LineOf(Pt(0, 0), Pt(1, 0)),
			out:  LineOf(Pt(1, 0), Pt(0, 0)),
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := k.Bisector(tt.in, tt.out)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want.X, v.X, 1e-12)
				assert.InDelta(t, tt.want.Y, v.Y, 1e-12)
			}
		})
	}
}

func TestKernelMeetAndHit(t *testing.T) {
	k := NewFloatKernel(0)

	a := Ray{Origin: Pt(0, 0), Velocity: Vec{X: 1, Y: 1}}
	b := Ray{Origin: Pt(1, 0), Velocity: Vec{X: -1, Y: 1}}
	tm, ok := k.Meet(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.5, tm, 1e-12)

	_, ok = k.Meet(a, Ray{Origin: Pt(1, 0), Velocity: Vec{X: 1, Y: 1}})
	assert.False(t, ok, "parallel rays never meet")

	// reflex corner of an L heading for the bottom edge
	r := Ray{Origin: Pt(3, 2), Velocity: Vec{X: -1, Y: -1}}
	tm, ok = k.Hit(r, LineOf(Pt(0, 0), Pt(6, 0)))
	require.True(t, ok)
	assert.InDelta(t, 1, tm, 1e-12)

	_, ok = k.Hit(Ray{Origin: Pt(1, 1), Velocity: Vec{X: 0, Y: 1}}, LineOf(Pt(0, 0), Pt(6, 0)))
	assert.False(t, ok, "ray moving with the line never reaches it")
}

func TestKernelPredicates(t *testing.T) {
	k := NewFloatKernel(1e-9)
	assert.True(t, k.Equal(Pt(1, 1), Pt(1, 1+1e-12)))
	assert.False(t, k.Equal(Pt(1, 1), Pt(1, 1.001)))
	assert.Equal(t, CounterClockwise, k.Orientation(Pt(0, 0), Pt(1, 0), Pt(1, 1)))
	assert.Equal(t, Clockwise, k.Orientation(Pt(0, 0), Pt(1, 1), Pt(1, 0)))
	assert.Equal(t, Collinear, k.Orientation(Pt(0, 0), Pt(1, 1), Pt(2, 2)))
	assert.InDelta(t, 25, k.SquaredDistance(Pt(0, 0), Pt(3, 4)), 1e-12)
	assert.True(t, k.OnSegment(Pt(1, 0), Pt(0, 0), Pt(2, 0)))
	assert.True(t, k.OnSegment(Pt(2, 0), Pt(0, 0), Pt(2, 0)))
	assert.False(t, k.OnSegment(Pt(3, 0), Pt(0, 0), Pt(2, 0)))
	assert.False(t, k.OnSegment(Pt(1, 0.5), Pt(0, 0), Pt(2, 0)))
	assert.Equal(t, 0, k.CompareTime(0.5, 0.5+1e-12))
	assert.Equal(t, -1, k.CompareTime(0.5, 0.6))
	assert.Equal(t, 1, k.CompareTime(0.6, 0.5))
}
