// Package viewer shows a shape file, its straight skeleton and an offset
// contour in a gioui window, and reloads the file when it changes on disk.
package viewer

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"gioui.org/layout"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/exp/shiny/materialdesign/icons"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/render"
	"github.com/bloodmagesoftware/skel/shape"
)

// Viewer is the main viewer component that manages the UI state and interactions
type Viewer struct {
	theme      *material.Theme
	path       string
	kernel     geom.Kernel
	invalidate func()

	// mu guards everything the watcher goroutine replaces on reload
	mu       sync.Mutex
	scene    *render.Scene
	loadErr  error
	offsets  []float64
	distance float64 // offset distance shown on the canvas
	step     float64 // distance change per key press
	exterior bool    // true when offsets grow outward

	// UI state
	reloadButton   widget.Clickable
	fitButton      widget.Clickable
	exteriorButton widget.Clickable
	growButton     widget.Clickable
	shrinkButton   widget.Clickable
	reloadIcon     *widget.Icon
	fitIcon        *widget.Icon
	growIcon       *widget.Icon
	shrinkIcon     *widget.Icon
	infoList       widget.List

	// Canvas state
	cam      camera
	needsFit bool // set on reload, cleared when the next frame fits the camera

	// Mouse/pointer state for canvas interaction
	isPanning  bool    // true when right mouse button is held down
	lastMouseX float32 // last mouse X position for drag calculation
	lastMouseY float32 // last mouse Y position for drag calculation
}

// New creates a viewer for the shape file at path. invalidate is called
// from the watcher goroutine when a reload needs a new frame.
func New(theme *material.Theme, path string, k geom.Kernel, offsets []float64, invalidate func()) *Viewer {
	if invalidate == nil {
		invalidate = func() {}
	}
	v := &Viewer{
		theme:      theme,
		path:       path,
		kernel:     k,
		invalidate: invalidate,
		offsets:    offsets,
		infoList: widget.List{
			List: layout.List{
				Axis: layout.Vertical,
			},
		},
		cam:      camera{zoom: 1},
		needsFit: true,
	}
	v.reloadIcon = loadIcon(icons.NavigationRefresh)
	v.fitIcon = loadIcon(icons.NavigationFullscreen)
	v.growIcon = loadIcon(icons.ContentAdd)
	v.shrinkIcon = loadIcon(icons.ContentRemove)
	if len(offsets) > 0 {
		v.distance = offsets[0]
	}
	return v
}

func loadIcon(data []byte) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		log.Printf("Failed to load icon: %v", err)
	}
	return icon
}

// Reload reads the shape file and rebuilds the scene. A file that fails to
// load or validate keeps the previous scene on screen and reports the error.
func (v *Viewer) Reload() error {
	doc := shape.New()
	err := doc.Load(v.path)
	var sc *render.Scene
	if err == nil {
		sc, err = render.NewScene(doc.Geom(), v.kernel, render.Options{})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err != nil {
		return err
	}
	v.scene = sc
	v.step = defaultStep(sc.Bounds())
	if v.distance == 0 {
		v.distance = 5 * v.step
	}
	v.needsFit = true
	return v.sliceLocked()
}

// defaultStep is one hundredth of the scene diagonal.
func defaultStep(box r2.Box) float64 {
	return r2.Norm(r2.Sub(box.Max, box.Min)) / 100
}

// sliceLocked recomputes the offsets shown for the current distance.
func (v *Viewer) sliceLocked() error {
	if v.scene == nil {
		return nil
	}
	ds := append([]float64{v.distance}, v.offsets...)
	err := v.scene.SetOffsets(ds, v.exterior)
	if err != nil {
		v.scene.Offsets = nil
	}
	v.loadErr = err
	return err
}

// SetDistance changes the offset distance, clamped at zero.
func (v *Viewer) SetDistance(d float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.distance = max(d, 0)
	_ = v.sliceLocked()
}

// Distance returns the offset distance shown on the canvas.
func (v *Viewer) Distance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.distance
}

// ToggleExterior switches between inward and outward offsets.
func (v *Viewer) ToggleExterior() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exterior = !v.exterior
	_ = v.sliceLocked()
}

func (v *Viewer) nudge(steps float64) {
	v.mu.Lock()
	step := v.step
	d := v.distance
	v.mu.Unlock()
	v.SetDistance(d + steps*step)
}

// Watch reloads the shape file whenever it changes, until done is closed.
// The directory is watched rather than the file because editors often save
// by renaming a new file over the old one.
func (v *Viewer) Watch(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(v.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", v.path, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(v.path)
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create ||
					event.Op&fsnotify.Rename == fsnotify.Rename {
					if err := v.Reload(); err != nil {
						log.Printf("Failed to reload %s: %v", v.path, err)
					} else {
						log.Printf("Reloaded %s", v.path)
					}
					v.invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Watch error: %v", err)
			}
		}
	}()
	return nil
}

// frame is what one frame draws, copied under the lock.
type frame struct {
	scene    render.Scene
	loaded   bool
	err      error
	distance float64
	exterior bool
	fit      bool // the camera should be fitted to the scene
}

func (v *Viewer) snapshot() frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	f := frame{err: v.loadErr, distance: v.distance, exterior: v.exterior}
	if v.scene != nil && v.needsFit {
		f.fit = true
		v.needsFit = false
	}
	if v.scene != nil {
		f.scene = *v.scene
		f.loaded = true
	}
	return f
}
