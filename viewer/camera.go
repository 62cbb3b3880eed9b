package viewer

import (
	"image"
	"math"

	"gioui.org/f32"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
)

// camera maps world coordinates (y up) to canvas pixels (y down).
type camera struct {
	offsetX float32 // pan offset X in pixels
	offsetY float32 // pan offset Y in pixels
	zoom    float32 // pixels per world unit
	fitZoom float32 // zoom after the last fit, the reference for clamping
}

func (c camera) toScreen(p geom.Point, size image.Point) f32.Point {
	return f32.Point{
		X: float32(size.X)/2 + c.offsetX + float32(p.X)*c.zoom,
		Y: float32(size.Y)/2 + c.offsetY - float32(p.Y)*c.zoom,
	}
}

func (c camera) toWorld(q f32.Point, size image.Point) geom.Point {
	return geom.Pt(
		float64((q.X-float32(size.X)/2-c.offsetX)/c.zoom),
		float64(-(q.Y-float32(size.Y)/2-c.offsetY)/c.zoom),
	)
}

// fit centers box on the canvas, filling 80% of its smaller side.
func (c *camera) fit(box r2.Box, size image.Point) {
	bw := math.Max(box.Max.X-box.Min.X, 1e-9)
	bh := math.Max(box.Max.Y-box.Min.Y, 1e-9)
	zoom := 0.8 * math.Min(float64(size.X)/bw, float64(size.Y)/bh)
	if zoom <= 0 || math.IsInf(zoom, 0) || math.IsNaN(zoom) {
		return
	}
	c.zoom = float32(zoom)
	c.fitZoom = c.zoom
	center := r2.Scale(0.5, r2.Add(box.Min, box.Max))
	c.offsetX = -float32(center.X) * c.zoom
	c.offsetY = float32(center.Y) * c.zoom
}

// zoomAt scales by factor while keeping the world point under q fixed.
func (c *camera) zoomAt(factor float32, q f32.Point, size image.Point) {
	newZoom := c.zoom * factor

	// Clamp zoom to reasonable limits around the fitted view
	if c.fitZoom > 0 {
		minZoom := c.fitZoom * 0.1
		maxZoom := c.fitZoom * 100
		if newZoom < minZoom {
			newZoom = minZoom
		}
		if newZoom > maxZoom {
			newZoom = maxZoom
		}
	}

	// Mouse position relative to center
	mouseRelX := q.X - float32(size.X)/2
	mouseRelY := q.Y - float32(size.Y)/2

	// Adjust offset to keep the same world point under the mouse
	zoomRatio := newZoom / c.zoom
	c.offsetX = (c.offsetX-mouseRelX)*zoomRatio + mouseRelX
	c.offsetY = (c.offsetY-mouseRelY)*zoomRatio + mouseRelY
	c.zoom = newZoom
}
