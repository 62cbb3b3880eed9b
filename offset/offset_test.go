package offset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var kernel = geom.NewFloatKernel(1e-9)

func rect(x0, y0, w, h float64) geom.Contour {
	return geom.Contour{geom.Pt(x0, y0), geom.Pt(x0+w, y0), geom.Pt(x0+w, y0+h), geom.Pt(x0, y0+h)}
}

func lShape() geom.Polygon {
	return geom.Polygon{Outer: geom.Contour{
		geom.Pt(0, 0), geom.Pt(6, 0), geom.Pt(6, 2),
		geom.Pt(3, 2), geom.Pt(3, 5), geom.Pt(0, 5),
	}}
}

func cornerHole() geom.Polygon {
	return geom.Polygon{
		Outer: rect(0, 0, 10, 10),
		Holes: []geom.Contour{rect(1, 1, 2, 2).Reversed()},
	}
}

func build(t *testing.T, p geom.Polygon, opts ...skeleton.Option) *skeleton.Skeleton {
	t.Helper()
	s, err := skeleton.Build(p, kernel, opts...)
	require.NoError(t, err)
	return s
}

// assertEdgeDistances checks that every offset segment lies at distance d
// from the line of the input edge it is attributed to.
func assertEdgeDistances(t *testing.T, cs []Contour, input []geom.Contour, d float64) {
	t.Helper()
	var edges [][2]geom.Point
	for _, c := range input {
		for i := range c {
			a, b := c.Edge(i)
			edges = append(edges, [2]geom.Point{a, b})
		}
	}
	for ci, c := range cs {
		require.Len(t, c.Edges, len(c.Points))
		for i, e := range c.Edges {
			require.GreaterOrEqual(t, e, 0)
			require.Less(t, e, len(edges))
			a, b := c.Points.Edge(i)
			mid := r2.Scale(0.5, r2.Add(a, b))
			l := geom.LineOf(edges[e][0], edges[e][1])
			dist := math.Abs(r2.Dot(l.Normal, r2.Sub(mid, l.Origin)))
			assert.InDelta(t, d, dist, 1e-9, "contour %d segment %d edge %d", ci, i, e)
		}
	}
}

func TestSquareInterior(t *testing.T) {
	s := build(t, geom.Polygon{Outer: rect(0, 0, 2, 2)})

	for _, d := range []float64{0.25, 0.5, 0.75} {
		cs, err := Interior(s, d)
		require.NoError(t, err)
		require.Len(t, cs, 1, "d=%g", d)
		c := cs[0]
		require.Len(t, c.Points, 4)
		side := 2 - 2*d
		assert.InDelta(t, side*side, c.Points.SignedArea(), 1e-9)
		for _, p := range c.Points {
			assert.True(t, math.Abs(p.X-d) < 1e-9 || math.Abs(p.X-(2-d)) < 1e-9, "point %v", p)
			assert.True(t, math.Abs(p.Y-d) < 1e-9 || math.Abs(p.Y-(2-d)) < 1e-9, "point %v", p)
		}
		assert.Equal(t, []int{0, 1, 2, 3}, c.Edges)
		assertEdgeDistances(t, cs, s.Contours(), d)
	}

	for _, d := range []float64{1, 1.5, 100} {
		cs, err := Interior(s, d)
		require.NoError(t, err)
		assert.Empty(t, cs, "d=%g", d)
	}
}

func TestZeroDistanceReturnsInput(t *testing.T) {
	p := lShape()
	s := build(t, p)
	cs, err := Interior(s, 0)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, p.Outer, cs[0].Points)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, cs[0].Edges)
}

func TestInvalidDistance(t *testing.T) {
	s := build(t, geom.Polygon{Outer: rect(0, 0, 2, 2)})
	for _, d := range []float64{-1, math.NaN()} {
		_, err := Interior(s, d)
		assert.ErrorIs(t, err, skeleton.ErrInvalidInput, "d=%g", d)
	}
}

func TestLShapeInterior(t *testing.T) {
	s := build(t, lShape())

	cs, err := Interior(s, 0.5)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Points, 6)
	assert.InDelta(t, 11, cs[0].Points.SignedArea(), 1e-9)
	assertEdgeDistances(t, cs, s.Contours(), 0.5)

	// at the split the foot has shrunk to a zero-width spike, which is
	// removed along with the vanished end edge
	cs, err = Interior(s, 1)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Points, 4)
	assert.InDelta(t, 3, cs[0].Points.SignedArea(), 1e-9)
	assert.Equal(t, []int{0, 3, 4, 5}, cs[0].Edges)

	// only the leg is left after the split
	cs, err = Interior(s, 1.25)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 0.5*2.5, cs[0].Points.SignedArea(), 1e-9)
	assertEdgeDistances(t, cs, s.Contours(), 1.25)
}

func TestHoleElimination(t *testing.T) {
	s := build(t, cornerHole())

	cs, err := Interior(s, 0.25)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.InDelta(t, 9.5*9.5, cs[0].Points.SignedArea(), 1e-9)
	assert.InDelta(t, -2.5*2.5, cs[1].Points.SignedArea(), 1e-9)
	assertEdgeDistances(t, cs, s.Contours(), 0.25)

	cs, err = Interior(s, 1)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Points, 6)
	assert.InDelta(t, 55, cs[0].Points.SignedArea(), 1e-9)
	assertEdgeDistances(t, cs, s.Contours(), 1)

	cs, err = Interior(s, 3.5)
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestPartialSkeletonBound(t *testing.T) {
	s := build(t, geom.Polygon{Outer: rect(0, 0, 2, 2)}, skeleton.WithMaxTime(0.5))

	cs, err := Interior(s, 0.25)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 1.5*1.5, cs[0].Points.SignedArea(), 1e-9)

	_, err = Interior(s, 0.75)
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestMulti(t *testing.T) {
	s := build(t, cornerHole())
	ds := []float64{0.25, 0.75, 1, 2, 3, 4}
	all, err := Multi(s, ds)
	require.NoError(t, err)
	require.Len(t, all, len(ds))
	for i, d := range ds {
		want, err := Interior(s, d)
		require.NoError(t, err)
		assert.Equal(t, want, all[i], "d=%g", d)
	}
	assert.Empty(t, all[len(ds)-1])

	_, err = Multi(s, []float64{1, -1})
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestExteriorSquare(t *testing.T) {
	square := rect(0, 0, 4, 4)
	x, err := NewExterior(square, 1, kernel)
	require.NoError(t, err)
	assert.True(t, x.Skeleton().Partial())
	assert.Greater(t, x.Margin(), 2.0)

	cs, err := x.Offset(1)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	c := cs[0]
	assert.True(t, c.Points.IsCCW())
	assert.InDelta(t, 36, c.Points.SignedArea(), 1e-9)
	assert.Equal(t, geom.Contour{
		geom.Pt(-1, -1), geom.Pt(5, -1), geom.Pt(5, 5), geom.Pt(-1, 5),
	}, roundContour(c.Points))
	assert.Equal(t, []int{0, 1, 2, 3}, c.Edges)
	assertEdgeDistances(t, cs, []geom.Contour{square}, 1)

	// shrinking the grown square by the same distance gives the input back
	back, err := Inward(geom.Polygon{Outer: c.Points}, 1, kernel)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.InDelta(t, 16, back[0].Points.SignedArea(), 1e-9)
	for _, p := range back[0].Points {
		assert.True(t, p.X > -1e-9 && p.X < 4+1e-9 && p.Y > -1e-9 && p.Y < 4+1e-9, "point %v", p)
	}

	cs, err = x.Offset(0)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, square, cs[0].Points)

	_, err = x.Offset(2)
	assert.ErrorIs(t, err, ErrInsufficientMargin)
}

func TestExteriorClockwiseInput(t *testing.T) {
	x, err := NewExterior(rect(0, 0, 4, 4).Reversed(), 0.5, kernel)
	require.NoError(t, err)
	cs, err := x.Offset(0.5)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 25, cs[0].Points.SignedArea(), 1e-9)
}

func TestExteriorLShape(t *testing.T) {
	p := lShape()
	x, err := NewExterior(p.Outer, 2, kernel)
	require.NoError(t, err)

	cs, err := x.Offset(1)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Points, 6)
	assert.InDelta(t, 47, cs[0].Points.SignedArea(), 1e-9)
	assertEdgeDistances(t, cs, p.Contours(), 1)
}

func TestMargin(t *testing.T) {
	m, err := Margin(rect(0, 0, 4, 4), 1, kernel)
	require.NoError(t, err)
	want := 1.05*(math.Sqrt2+1) + 0.05*math.Hypot(4, 4)
	assert.InDelta(t, want, m, 1e-12)

	_, err = Margin(rect(0, 0, 4, 4), 0, kernel)
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
	_, err = Margin(rect(0, 0, 4, 4), math.Inf(1), kernel)
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestOutwardWithHole(t *testing.T) {
	p := cornerHole()
	cs, err := Outward(p, 0.25, kernel)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.InDelta(t, 10.5*10.5, cs[0].Points.SignedArea(), 1e-9)
	assert.InDelta(t, -1.5*1.5, cs[1].Points.SignedArea(), 1e-9)
	for _, e := range cs[1].Edges {
		assert.GreaterOrEqual(t, e, 4)
	}
	assertEdgeDistances(t, cs, p.Contours(), 0.25)

	// the hole closes before the outer boundary stops growing
	cs, err = Outward(p, 1, kernel)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 12*12, cs[0].Points.SignedArea(), 1e-9)

	cs, err = Outward(p, 0, kernel)
	require.NoError(t, err)
	assert.Len(t, cs, 2)

	_, err = Outward(geom.Polygon{Outer: geom.Contour{geom.Pt(0, 0), geom.Pt(1, 1)}}, 1, kernel)
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestInwardNormalizes(t *testing.T) {
	p := geom.Polygon{Outer: rect(0, 0, 2, 2).Reversed()}
	cs, err := Inward(p, 0.5, kernel)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.InDelta(t, 1, cs[0].Points.SignedArea(), 1e-9)
}

func TestArrange(t *testing.T) {
	s := build(t, geom.Polygon{
		Outer: rect(0, 0, 10, 10),
		Holes: []geom.Contour{rect(4, 4, 2, 2).Reversed()},
	})
	cs, err := Interior(s, 1)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	ps := Arrange(cs)
	require.Len(t, ps, 1)
	require.Len(t, ps[0].Holes, 1)
	assert.InDelta(t, 64-16, ps[0].Area(), 1e-9)

	two, err := skeleton.BuildAll([]geom.Polygon{
		{Outer: rect(0, 0, 2, 2)},
		{Outer: rect(5, 0, 2, 2)},
	}, kernel)
	require.NoError(t, err)
	cs, err = Interior(two, 0.5)
	require.NoError(t, err)
	ps = Arrange(cs)
	require.Len(t, ps, 2)
	for _, p := range ps {
		assert.Empty(t, p.Holes)
		assert.InDelta(t, 1, p.Area(), 1e-9)
	}

	assert.Empty(t, Arrange(nil))
}

func roundContour(c geom.Contour) geom.Contour {
	out := make(geom.Contour, len(c))
	for i, p := range c {
		out[i] = geom.Pt(math.Round(p.X*1e6)/1e6, math.Round(p.Y*1e6)/1e6)
	}
	return out
}

// starPolygon returns a polygon that is star-shaped around the origin, with
// jittered vertices between radius 1.5 and 4 and, when hole is set, a small
// triangular hole around the origin.
func starPolygon(seed uint64, hole bool) geom.Polygon {
	rng := rand.New(rand.NewPCG(seed, 0xf00d))
	n := 5 + rng.IntN(8)
	outer := make(geom.Contour, n)
	for i := range outer {
		a := (float64(i) + 0.8*(rng.Float64()-0.5)) * 2 * math.Pi / float64(n)
		r := 1.5 + 2.5*rng.Float64()
		outer[i] = geom.Pt(r*math.Cos(a), r*math.Sin(a))
	}
	p := geom.Polygon{Outer: outer}
	if hole {
		rot := rng.Float64() * math.Pi
		h := make(geom.Contour, 3)
		for i := range h {
			a := rot - 2*math.Pi*float64(i)/3
			h[i] = geom.Pt(0.3*math.Cos(a), 0.3*math.Sin(a))
		}
		p.Holes = append(p.Holes, h)
	}
	return p
}

func segmentDistance(p, a, b geom.Point) float64 {
	ab := r2.Sub(b, a)
	u := r2.Dot(r2.Sub(p, a), ab) / r2.Dot(ab, ab)
	u = math.Max(0, math.Min(1, u))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(u, ab))))
}

func crosses(a, b, c, d geom.Point) bool {
	o1, o2 := kernel.Orientation(a, b, c), kernel.Orientation(a, b, d)
	o3, o4 := kernel.Orientation(c, d, a), kernel.Orientation(c, d, b)
	if o1 == geom.Collinear || o2 == geom.Collinear || o3 == geom.Collinear || o4 == geom.Collinear {
		return false
	}
	return o1 != o2 && o3 != o4
}

// assertOffsetRings checks that the rings at distance d do not cross each
// other or themselves and keep at least d away from the input boundary.
func assertOffsetRings(t *testing.T, p geom.Polygon, cs []Contour, d float64) {
	t.Helper()
	type segment struct {
		ring, index int
		a, b        geom.Point
	}
	var segs []segment
	for ci, c := range cs {
		require.GreaterOrEqual(t, len(c.Points), 3, "d=%g contour %d", d, ci)
		for i := range c.Points {
			a, b := c.Points.Edge(i)
			segs = append(segs, segment{ring: ci, index: i, a: a, b: b})
		}
		for _, q := range c.Points {
			for _, in := range p.Contours() {
				for i := range in {
					a, b := in.Edge(i)
					require.GreaterOrEqual(t, segmentDistance(q, a, b), d-1e-6,
						"d=%g contour %d point %v", d, ci, q)
				}
			}
			require.True(t, p.Outer.Contains(q), "d=%g point %v", d, q)
			for _, h := range p.Holes {
				require.False(t, h.Contains(q), "d=%g point %v", d, q)
			}
		}
	}
	for i, s := range segs {
		for _, o := range segs[i+1:] {
			if s.ring == o.ring {
				n := len(cs[s.ring].Points)
				if o.index == s.index+1 || (s.index == 0 && o.index == n-1) {
					continue
				}
			}
			require.False(t, crosses(s.a, s.b, o.a, o.b),
				"d=%g contour %d segment %d crosses contour %d segment %d", d, s.ring, s.index, o.ring, o.index)
		}
	}
}

func TestRandomStarOffsets(t *testing.T) {
	for seed := uint64(0); seed < 60; seed++ {
		hole := seed%3 == 0
		t.Run(fmt.Sprintf("seed %d hole %v", seed, hole), func(t *testing.T) {
			p := starPolygon(seed, hole)
			s := build(t, p)
			require.False(t, s.Partial())
			conv := s.ConvergenceTime()

			for _, f := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
				d := f * conv
				cs, err := Interior(s, d)
				require.NoError(t, err, "d=%g", d)
				require.NotEmpty(t, cs, "d=%g", d)
				assertOffsetRings(t, p, cs, d)
				assertEdgeDistances(t, cs, s.Contours(), d)
			}
			for _, ev := range s.Events() {
				cs, err := Interior(s, ev.Time)
				require.NoError(t, err, "event at %g", ev.Time)
				assertOffsetRings(t, p, cs, ev.Time)
			}

			cs, err := Interior(s, conv)
			require.NoError(t, err)
			assert.Empty(t, cs)
		})
	}
}
