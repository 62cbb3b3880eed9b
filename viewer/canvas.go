package viewer

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/skeleton"
)

var (
	canvasColor  = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	fillColor    = color.NRGBA{R: 100, G: 200, B: 255, A: 60}
	outlineColor = color.NRGBA{R: 100, G: 200, B: 255, A: 255}
	arcColor     = color.NRGBA{R: 220, G: 220, B: 220, A: 200}
	offsetColor  = color.NRGBA{R: 255, G: 140, B: 60, A: 255}
	extraColor   = color.NRGBA{R: 255, G: 140, B: 60, A: 110}
	nodeColor    = color.NRGBA{R: 255, G: 220, B: 80, A: 255}
	errorColor   = color.NRGBA{R: 255, G: 80, B: 80, A: 255}
)

// layoutCanvas renders the canvas with the polygons, skeleton and offsets
func (v *Viewer) layoutCanvas(gtx layout.Context, f frame) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
			paint.ColorOp{Color: canvasColor}.Add(gtx.Ops)
			paint.PaintOp{}.Add(gtx.Ops)
			return layout.Dimensions{Size: gtx.Constraints.Max}
		},
		func(gtx layout.Context) layout.Dimensions {
			if f.fit {
				v.cam.fit(f.scene.Bounds(), gtx.Constraints.Max)
			}

			// Handle pointer input for panning and zooming
			v.handleCanvasInput(gtx)

			if f.loaded {
				v.drawScene(gtx, f)
			}
			return layout.Dimensions{Size: gtx.Constraints.Max}
		},
	)
}

// handleCanvasInput processes mouse/pointer events for panning and zooming
func (v *Viewer) handleCanvasInput(gtx layout.Context) {
	// Register for pointer input events
	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	event.Op(gtx.Ops, &v.cam)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  &v.cam,
			Kinds:   pointer.Press | pointer.Release | pointer.Drag | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}

		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}

		switch pe.Kind {
		case pointer.Press:
			// Start panning on right mouse button press
			if pe.Buttons == pointer.ButtonSecondary {
				v.isPanning = true
				v.lastMouseX = pe.Position.X
				v.lastMouseY = pe.Position.Y
			}

		case pointer.Release:
			if pe.Buttons&pointer.ButtonSecondary == 0 {
				v.isPanning = false
			}

		case pointer.Drag:
			if v.isPanning {
				v.cam.offsetX += pe.Position.X - v.lastMouseX
				v.cam.offsetY += pe.Position.Y - v.lastMouseY
				v.lastMouseX = pe.Position.X
				v.lastMouseY = pe.Position.Y
			}

		case pointer.Scroll:
			// Scroll.Y is positive when scrolling up (zoom in)
			v.cam.zoomAt(1+pe.Scroll.Y*0.1, pe.Position, gtx.Constraints.Max)
		}
	}
}

// drawScene draws the polygons, the skeleton arcs and nodes, and the offsets
func (v *Viewer) drawScene(gtx layout.Context, f frame) {
	size := gtx.Constraints.Max

	// Clip all drawing operations to the canvas bounds
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()

	for _, p := range f.scene.Polygons {
		v.fillRings(gtx, p.Contours(), fillColor)
	}

	if s := f.scene.Skeleton; s != nil {
		for _, a := range s.Arcs() {
			if a.Kind != skeleton.Bisector || a.Open() {
				continue
			}
			v.drawSegment(gtx, s.Node(a.Source).Pos, s.Node(a.Target).Pos, 1, arcColor)
		}
		for _, n := range s.Nodes() {
			if n.Time > 0 {
				v.drawCircle(gtx, v.cam.toScreen(n.Pos, size), 3, nodeColor)
			}
		}
	}

	// The first set is the adjustable distance, the rest come from the config
	for i, cs := range f.scene.Offsets {
		col, width := offsetColor, float32(2)
		if i > 0 {
			col, width = extraColor, 1
		}
		for _, c := range cs {
			v.drawRing(gtx, c.Points, width, col)
		}
	}

	for _, p := range f.scene.Polygons {
		for _, c := range p.Contours() {
			v.drawRing(gtx, c, 2, outlineColor)
		}
	}
}

// fillRings fills the area enclosed by rings. Holes wind the other way and
// stay empty under the non-zero rule.
func (v *Viewer) fillRings(gtx layout.Context, rings []geom.Contour, col color.NRGBA) {
	size := gtx.Constraints.Max
	var path clip.Path
	path.Begin(gtx.Ops)
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		path.MoveTo(v.cam.toScreen(ring[0], size))
		for _, p := range ring[1:] {
			path.LineTo(v.cam.toScreen(p, size))
		}
		path.Close()
	}
	spec := path.End()
	stack := clip.Outline{Path: spec}.Op().Push(gtx.Ops)
	paint.ColorOp{Color: col}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	stack.Pop() // Pop immediately so subsequent drawing isn't clipped
}

func (v *Viewer) drawRing(gtx layout.Context, ring geom.Contour, width float32, col color.NRGBA) {
	for i := range ring {
		a, b := ring.Edge(i)
		v.drawSegment(gtx, a, b, width, col)
	}
}

func (v *Viewer) drawSegment(gtx layout.Context, a, b geom.Point, width float32, col color.NRGBA) {
	size := gtx.Constraints.Max
	drawLine(gtx, v.cam.toScreen(a, size), v.cam.toScreen(b, size), width, col)
}

// drawCircle draws a filled circle at the given screen position
func (v *Viewer) drawCircle(gtx layout.Context, center f32.Point, radius float32, col color.NRGBA) {
	r := image.Rect(
		int(center.X-radius), int(center.Y-radius),
		int(center.X+radius), int(center.Y+radius),
	)
	defer clip.Ellipse(r).Push(gtx.Ops).Pop()
	paint.ColorOp{Color: col}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

// drawLine draws a line between two points with the given width
func drawLine(gtx layout.Context, from, to f32.Point, width float32, col color.NRGBA) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(from)
	path.LineTo(to)

	spec := path.End()
	stroke := clip.Stroke{
		Path:  spec,
		Width: width,
	}.Op()

	defer stroke.Push(gtx.Ops).Pop()
	paint.ColorOp{Color: col}.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}
