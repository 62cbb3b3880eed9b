// Package render draws polygons, their skeletons and offset contours into
// images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"github.com/xfmoulet/qoi"
	"golang.org/x/image/vector"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/offset"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var (
	Background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Fill       = color.RGBA{0xe4, 0xe7, 0xeb, 0xff}
	Outline    = color.RGBA{0x1f, 0x23, 0x28, 0xff}
	Arc        = color.RGBA{0x2f, 0x6f, 0xdb, 0xff}
	Offset     = color.RGBA{0xe0, 0x5a, 0x2b, 0xff}
)

type Options struct {
	Width   int
	Height  int
	Padding int
	// Offsets are the distances to draw contours at.
	Offsets []float64
	// Exterior draws offsets outside the polygons instead of inside.
	Exterior bool
}

// Scene holds the geometry of one picture.
type Scene struct {
	Polygons []geom.Polygon
	Skeleton *skeleton.Skeleton
	// Offsets holds one set of contours per distance.
	Offsets [][]offset.Contour
}

// NewScene builds the skeleton of ps and slices it at every distance in
// opts.Offsets.
func NewScene(ps []geom.Polygon, k geom.Kernel, opts Options) (*Scene, error) {
	ps = append([]geom.Polygon(nil), ps...)
	for i := range ps {
		ps[i] = ps[i].Normalize()
	}
	s, err := skeleton.BuildAll(ps, k)
	if err != nil {
		return nil, err
	}
	sc := &Scene{Polygons: ps, Skeleton: s}
	if err := sc.SetOffsets(opts.Offsets, opts.Exterior); err != nil {
		return nil, err
	}
	return sc, nil
}

// SetOffsets replaces the offset contours with slices at every distance in
// ds, inside the polygons or, when exterior is set, outside them.
func (sc *Scene) SetOffsets(ds []float64, exterior bool) error {
	if !exterior {
		offs, err := offset.Multi(sc.Skeleton, ds)
		if err != nil {
			return err
		}
		sc.Offsets = offs
		return nil
	}

	// one outward offset per polygon and distance
	k := sc.Skeleton.Kernel()
	parts := make([][][]offset.Contour, len(ds))
	for i := range parts {
		parts[i] = make([][]offset.Contour, len(sc.Polygons))
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, d := range ds {
		for j, p := range sc.Polygons {
			g.Go(func() error {
				cs, err := offset.Outward(p, d, k)
				if err != nil {
					return fmt.Errorf("polygon %d offset %g: %w", j, d, err)
				}
				parts[i][j] = cs
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	offs := make([][]offset.Contour, len(parts))
	for i, byPolygon := range parts {
		for _, cs := range byPolygon {
			offs[i] = append(offs[i], cs...)
		}
	}
	sc.Offsets = offs
	return nil
}

// Bounds returns the box around everything the scene draws.
func (sc *Scene) Bounds() r2.Box {
	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	grow := func(b r2.Box) {
		box.Min.X = math.Min(box.Min.X, b.Min.X)
		box.Min.Y = math.Min(box.Min.Y, b.Min.Y)
		box.Max.X = math.Max(box.Max.X, b.Max.X)
		box.Max.Y = math.Max(box.Max.Y, b.Max.Y)
	}
	for _, p := range sc.Polygons {
		grow(p.Bounds())
	}
	for _, cs := range sc.Offsets {
		for _, c := range cs {
			grow(c.Points.Bounds())
		}
	}
	return box
}

// Draw rasterizes the scene into a new image.
func (sc *Scene) Draw(opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	tr := fit(sc.Bounds(), opts)
	var rings []geom.Contour
	for _, p := range sc.Polygons {
		rings = append(rings, p.Contours()...)
	}
	fill(img, tr, rings, Fill)

	if sc.Skeleton != nil {
		var segs [][2]geom.Point
		for _, a := range sc.Skeleton.Arcs() {
			if a.Kind != skeleton.Bisector || a.Open() {
				continue
			}
			segs = append(segs, [2]geom.Point{
				sc.Skeleton.Node(a.Source).Pos,
				sc.Skeleton.Node(a.Target).Pos,
			})
		}
		stroke(img, tr, segs, 1.5, Arc)
	}

	var segs [][2]geom.Point
	for _, cs := range sc.Offsets {
		for _, c := range cs {
			segs = append(segs, ringSegments(c.Points)...)
		}
	}
	stroke(img, tr, segs, 1.5, Offset)

	segs = segs[:0]
	for _, r := range rings {
		segs = append(segs, ringSegments(r)...)
	}
	stroke(img, tr, segs, 2, Outline)
	return img
}

// transform maps world coordinates to pixels with the y axis flipped.
type transform struct {
	scale  float64
	origin r2.Vec
	height float64
}

func (t transform) apply(p geom.Point) (float32, float32) {
	return float32((p.X - t.origin.X) * t.scale), float32(t.height - (p.Y-t.origin.Y)*t.scale)
}

// fit centers box inside the padded image, keeping the aspect ratio.
func fit(box r2.Box, opts Options) transform {
	w := float64(opts.Width - 2*opts.Padding)
	h := float64(opts.Height - 2*opts.Padding)
	bw := math.Max(box.Max.X-box.Min.X, 1e-12)
	bh := math.Max(box.Max.Y-box.Min.Y, 1e-12)
	scale := math.Min(w/bw, h/bh)
	// world point that lands on the left and bottom pixel edges
	padX := (float64(opts.Width)-bw*scale)/2/scale
	padY := (float64(opts.Height)-bh*scale)/2/scale
	return transform{
		scale:  scale,
		origin: r2.Vec{X: box.Min.X - padX, Y: box.Min.Y - padY},
		height: float64(opts.Height),
	}
}

func fill(dst *image.RGBA, tr transform, rings []geom.Contour, c color.Color) {
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.DrawOp = draw.Over
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		r.MoveTo(tr.apply(ring[0]))
		for _, p := range ring[1:] {
			r.LineTo(tr.apply(p))
		}
		r.ClosePath()
	}
	r.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// stroke draws every segment as a quad of the given pixel width. All quads
// wind the same way so overlaps at shared endpoints do not cancel.
func stroke(dst *image.RGBA, tr transform, segs [][2]geom.Point, width float64, c color.Color) {
	if len(segs) == 0 {
		return
	}
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.DrawOp = draw.Over
	for _, s := range segs {
		ax, ay := tr.apply(s[0])
		bx, by := tr.apply(s[1])
		a := r2.Vec{X: float64(ax), Y: float64(ay)}
		d := r2.Sub(r2.Vec{X: float64(bx), Y: float64(by)}, a)
		l := r2.Norm(d)
		if l == 0 {
			continue
		}
		u := r2.Scale(1/l, d)
		n := r2.Scale(width/2, r2.Vec{X: -u.Y, Y: u.X})
		// extend the ends by half the width to close the joints
		a = r2.Sub(a, r2.Scale(width/2, u))
		e := r2.Add(a, r2.Scale(l+width, u))
		quad := [4]r2.Vec{r2.Add(a, n), r2.Add(e, n), r2.Sub(e, n), r2.Sub(a, n)}
		r.MoveTo(float32(quad[0].X), float32(quad[0].Y))
		for _, q := range quad[1:] {
			r.LineTo(float32(q.X), float32(q.Y))
		}
		r.ClosePath()
	}
	r.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func ringSegments(c geom.Contour) [][2]geom.Point {
	out := make([][2]geom.Point, len(c))
	for i := range c {
		a, b := c.Edge(i)
		out[i] = [2]geom.Point{a, b}
	}
	return out
}

// Encode writes img as "qoi" or "png".
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "qoi":
		return qoi.Encode(w, img)
	case "png":
		return png.Encode(w, img)
	}
	return fmt.Errorf("unknown image format %q", format)
}

// WriteFile encodes img into path, creating parent directories.
func WriteFile(path string, img image.Image, format string) error {
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return Encode(f, img, format)
}
