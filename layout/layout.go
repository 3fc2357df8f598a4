// Package layout computes how the rendered canvas maps onto monitor
// geometry: which monitors participate, the virtual-screen union under the
// active bounds policy, and the per-monitor source rectangle for the chosen
// layout mode.
package layout

import (
	"github.com/chewxy/math32"

	"github.com/richinsley/goshaderbg/preset"
)

// Monitor describes one display: DRM connector name plus virtual-desktop
// geometry in logical pixels.
type Monitor struct {
	Connector     string
	X, Y          int
	Width, Height int
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Union returns the smallest rectangle enclosing both.
func (r Rect) Union(o Rect) Rect {
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.Right(), o.Right())
	y2 := max(r.Bottom(), o.Bottom())
	return Rect{x1, y1, x2 - x1, y2 - y1}
}

func (m Monitor) Bounds() Rect {
	return Rect{m.X, m.Y, m.Width, m.Height}
}

// Union returns the rectangle enclosing all monitors, or the zero Rect when
// none are supplied.
func Union(monitors []Monitor) Rect {
	if len(monitors) == 0 {
		return Rect{}
	}
	bounds := monitors[0].Bounds()
	for _, m := range monitors[1:] {
		bounds = bounds.Union(m.Bounds())
	}
	return bounds
}

// Canvas is one logical render surface. Non-cloned policies share a single
// canvas at the union's scaled resolution; cloned mode gives each monitor
// its own.
type Canvas struct {
	Width, Height int
}

// MonitorLayout is the computed source-to-destination mapping for one
// monitor.
type MonitorLayout struct {
	Monitor Monitor
	// Canvas indexes Layout.Canvases.
	Canvas int
	// SrcUV is the canvas source rectangle in UV space: u0, v0, u1, v1.
	// Values outside [0,1] tile under Wrap "repeat"/"mirrored_repeat" and
	// letterbox under "clamp".
	SrcUV [4]float32
	Wrap  string
}

// Layout is the resolved monitor mapping, recomputed whenever the monitor
// set, the bounds policy, or the selection changes.
type Layout struct {
	Bounds   Rect // virtual screen union; zero in cloned mode
	Canvases []Canvas
	Monitors []MonitorLayout
}

// selected filters monitors by connector name. A "*" entry selects all.
func selected(monitors []Monitor, selection []string) []Monitor {
	for _, s := range selection {
		if s == "*" {
			return monitors
		}
	}
	var out []Monitor
	for _, m := range monitors {
		for _, s := range selection {
			if m.Connector == s {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func scaledSize(w, h int, scale float64) (int, int) {
	sw := int(math32.Round(float32(w) * float32(scale)))
	sh := int(math32.Round(float32(h) * float32(scale)))
	return max(sw, 1), max(sh, 1)
}

// Resolve computes the layout for the given monitors and preset policy.
// An empty result (no selected monitors) is valid; the caller decides
// whether to stand by.
func Resolve(monitors []Monitor, p *preset.Preset) *Layout {
	sel := selected(monitors, p.MonitorSelection)
	l := &Layout{}

	if p.ScreenBoundsPolicy == preset.BoundsCloned {
		for i, m := range sel {
			w, h := scaledSize(m.Width, m.Height, p.ResolutionScale)
			l.Canvases = append(l.Canvases, Canvas{w, h})
			l.Monitors = append(l.Monitors, MonitorLayout{
				Monitor: m,
				Canvas:  i,
				SrcUV:   [4]float32{0, 0, 1, 1},
				Wrap:    "clamp",
			})
		}
		return l
	}

	boundsFrom := monitors
	if p.ScreenBoundsPolicy == preset.BoundsSelectionMonitors {
		boundsFrom = sel
	}
	l.Bounds = Union(boundsFrom)
	if l.Bounds.W == 0 || l.Bounds.H == 0 || len(sel) == 0 {
		return l
	}

	cw, ch := scaledSize(l.Bounds.W, l.Bounds.H, p.ResolutionScale)
	l.Canvases = []Canvas{{cw, ch}}

	for _, m := range sel {
		rel := Rect{m.X - l.Bounds.X, m.Y - l.Bounds.Y, m.Width, m.Height}
		ml := MonitorLayout{Monitor: m, Canvas: 0}

		switch p.LayoutMode {
		case preset.LayoutStretch:
			ml.SrcUV = [4]float32{0, 0, 1, 1}
			ml.Wrap = "clamp"
		case preset.LayoutCenter:
			// Canvas at native scale centered on the union; monitors crop
			// their region and letterbox whatever falls outside.
			ox := (float32(l.Bounds.W) - float32(cw)) / 2
			oy := (float32(l.Bounds.H) - float32(ch)) / 2
			ml.SrcUV = [4]float32{
				(float32(rel.X) - ox) / float32(cw),
				(float32(rel.Y) - oy) / float32(ch),
				(float32(rel.Right()) - ox) / float32(cw),
				(float32(rel.Bottom()) - oy) / float32(ch),
			}
			ml.Wrap = "clamp"
		case preset.LayoutRepeat, preset.LayoutMirroredRepeat:
			// Tiles at native scale anchored at the union origin.
			ml.SrcUV = [4]float32{
				float32(rel.X) / float32(cw),
				float32(rel.Y) / float32(ch),
				float32(rel.Right()) / float32(cw),
				float32(rel.Bottom()) / float32(ch),
			}
			ml.Wrap = "repeat"
			if p.LayoutMode == preset.LayoutMirroredRepeat {
				ml.Wrap = "mirrored_repeat"
			}
		}
		l.Monitors = append(l.Monitors, ml)
	}
	return l
}
