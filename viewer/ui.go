package viewer

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
)

var (
	barColor   = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	panelColor = color.NRGBA{R: 50, G: 50, B: 50, A: 255}
	textColor  = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
	white      = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	blue       = color.NRGBA{R: 60, G: 120, B: 200, A: 255}
	orange     = color.NRGBA{R: 200, G: 120, B: 60, A: 255}
)

// Layout renders the entire viewer UI
func (v *Viewer) Layout(gtx layout.Context) layout.Dimensions {
	// Register for global keyboard events
	event.Op(gtx.Ops, v)
	v.handleKeys(gtx)
	v.handleButtons(gtx)

	f := v.snapshot()

	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		// Top bar
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return v.layoutTopBar(gtx, f)
		}),
		// Middle section (canvas + event list)
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{
				Axis: layout.Horizontal,
			}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return v.layoutCanvas(gtx, f)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.layoutEventList(gtx, f)
				}),
			)
		}),
		// Bottom bar
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return v.layoutBottomBar(gtx, f)
		}),
	)
}

// handleKeys processes the keyboard shortcuts:
// Up/Down change the offset distance, E toggles outward offsets,
// F fits the view and R reloads the file.
func (v *Viewer) handleKeys(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: key.NameUpArrow},
			key.Filter{Name: key.NameDownArrow},
			key.Filter{Name: "E"},
			key.Filter{Name: "F"},
			key.Filter{Name: "R"},
		)
		if !ok {
			break
		}

		ke, ok := ev.(key.Event)
		if !ok || ke.State != key.Press {
			continue
		}
		switch ke.Name {
		case key.NameUpArrow:
			v.nudge(1)
		case key.NameDownArrow:
			v.nudge(-1)
		case "E":
			v.ToggleExterior()
		case "F":
			v.requestFit()
		case "R":
			v.reload()
		}
	}
}

func (v *Viewer) handleButtons(gtx layout.Context) {
	if v.growButton.Clicked(gtx) {
		v.nudge(1)
	}
	if v.shrinkButton.Clicked(gtx) {
		v.nudge(-1)
	}
	if v.exteriorButton.Clicked(gtx) {
		v.ToggleExterior()
	}
	if v.fitButton.Clicked(gtx) {
		v.requestFit()
	}
	if v.reloadButton.Clicked(gtx) {
		v.reload()
	}
}

func (v *Viewer) requestFit() {
	v.mu.Lock()
	v.needsFit = true
	v.mu.Unlock()
}

func (v *Viewer) reload() {
	if err := v.Reload(); err != nil {
		log.Printf("Failed to reload %s: %v", v.path, err)
		return
	}
	log.Printf("Reloaded %s", v.path)
}

// layoutTopBar renders the top toolbar with the file name and offset controls
func (v *Viewer) layoutTopBar(gtx layout.Context, f frame) layout.Dimensions {
	gtx.Constraints.Min = gtx.Constraints.Max
	gtx.Constraints.Min.Y = gtx.Dp(unit.Dp(40))
	gtx.Constraints.Max.Y = gtx.Constraints.Min.Y

	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			defer clip.Rect{Max: gtx.Constraints.Min}.Push(gtx.Ops).Pop()
			paint.ColorOp{Color: barColor}.Add(gtx.Ops)
			paint.PaintOp{}.Add(gtx.Ops)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			direction := "inward"
			if f.exterior {
				direction = "outward"
			}
			return layout.Flex{
				Axis:      layout.Horizontal,
				Alignment: layout.Middle,
			}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.label(gtx, "Shape: "+filepath.Base(v.path))
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(16)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.iconButton(gtx, &v.shrinkButton, v.shrinkIcon, "Decrease distance", blue)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.label(gtx, fmt.Sprintf("d = %.4g %s", f.distance, direction))
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.iconButton(gtx, &v.growButton, v.growIcon, "Increase distance", blue)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					btn := material.Button(v.theme, &v.exteriorButton, "Toggle direction")
					btn.Background = blue
					if f.exterior {
						btn.Background = orange
					}
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.iconButton(gtx, &v.fitButton, v.fitIcon, "Fit view", blue)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return v.iconButton(gtx, &v.reloadButton, v.reloadIcon, "Reload file", blue)
				}),
			)
		},
	)
}

// layoutEventList renders the right sidebar listing the skeleton events
func (v *Viewer) layoutEventList(gtx layout.Context, f frame) layout.Dimensions {
	gtx.Constraints.Min.X = gtx.Dp(unit.Dp(220))
	gtx.Constraints.Max.X = gtx.Constraints.Min.X

	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			defer clip.Rect{Max: gtx.Constraints.Min}.Push(gtx.Ops).Pop()
			paint.ColorOp{Color: panelColor}.Add(gtx.Ops)
			paint.PaintOp{}.Add(gtx.Ops)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			if !f.loaded || f.scene.Skeleton == nil {
				return layout.Dimensions{Size: gtx.Constraints.Min}
			}
			events := f.scene.Skeleton.Events()
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						label := material.H6(v.theme, "Events")
						label.Color = textColor
						return label.Layout(gtx)
					})
				}),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.List(v.theme, &v.infoList).Layout(gtx, len(events), func(gtx layout.Context, index int) layout.Dimensions {
						ev := events[index]
						text := fmt.Sprintf("%.4g  %s", ev.Time, ev.Kind)
						return layout.Inset{Left: unit.Dp(12), Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(v.theme, text)
							label.Color = textColor
							if ev.Time <= f.distance && !f.exterior {
								label.Color = offsetColor
							}
							return label.Layout(gtx)
						})
					})
				}),
			)
		},
	)
}

// layoutBottomBar renders the status line with skeleton statistics or the
// last load error
func (v *Viewer) layoutBottomBar(gtx layout.Context, f frame) layout.Dimensions {
	gtx.Constraints.Min = gtx.Constraints.Max
	gtx.Constraints.Min.Y = gtx.Dp(unit.Dp(28))
	gtx.Constraints.Max.Y = gtx.Constraints.Min.Y

	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			defer clip.Rect{Max: gtx.Constraints.Min}.Push(gtx.Ops).Pop()
			paint.ColorOp{Color: barColor}.Add(gtx.Ops)
			paint.PaintOp{}.Add(gtx.Ops)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Left: unit.Dp(8), Top: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.Body2(v.theme, status(f))
				label.Color = textColor
				if f.err != nil {
					label.Color = errorColor
				}
				return label.Layout(gtx)
			})
		},
	)
}

func status(f frame) string {
	if f.err != nil {
		return f.err.Error()
	}
	if !f.loaded {
		return "no shape loaded"
	}
	s := f.scene.Skeleton
	contours := 0
	if len(f.scene.Offsets) > 0 {
		contours = len(f.scene.Offsets[0])
	}
	return fmt.Sprintf("%d polygons, %d nodes, %d arcs, %d events, converges at %.4g, %d offset contours",
		len(f.scene.Polygons), len(s.Nodes()), len(s.Arcs()), len(s.Events()), s.ConvergenceTime(), contours)
}

func (v *Viewer) label(gtx layout.Context, text string) layout.Dimensions {
	return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		label := material.Body1(v.theme, text)
		label.Color = textColor
		return label.Layout(gtx)
	})
}

// iconButton lays out a small icon button, or nothing if the icon failed to load
func (v *Viewer) iconButton(gtx layout.Context, btn *widget.Clickable, icon *widget.Icon, description string, bg color.NRGBA) layout.Dimensions {
	if icon == nil {
		return layout.Dimensions{}
	}
	b := material.IconButton(v.theme, btn, icon, description)
	b.Background = bg
	b.Color = white
	b.Size = unit.Dp(20)
	return b.Layout(gtx)
}
