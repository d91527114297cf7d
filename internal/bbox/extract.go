// Package bbox implements the geometry pass: an on-canvas bounding box (and,
// for thin targets, a decimated point list) for every selectable element,
// keyed identically to the hitmap registry so the editor can correlate the
// two maps without a third lookup table.
package bbox

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/plotpick/plotpick/internal/hitmap"
	"github.com/plotpick/plotpick/internal/render"
	"github.com/plotpick/plotpick/internal/scene"
	"github.com/plotpick/plotpick/internal/viewport"
)

// Entry is one element's geometry in output-image pixel space.
type Entry struct {
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Category   scene.Category `json:"category"`
	PanelIndex int            `json:"panelIndex"`
	// Points is a decimated polyline/point list for proximity hit-testing
	// of thin targets; box containment alone is useless for a 1px line.
	Points [][2]float64 `json:"points,omitempty"`
}

// Meta echoes the raster geometry the boxes were computed against.
type Meta struct {
	OutputWidth  int     `json:"outputWidth"`
	OutputHeight int     `json:"outputHeight"`
	DPI          float64 `json:"dpi"`
}

// Result is the full output of one bbox pass.
type Result struct {
	Boxes map[string]Entry `json:"boxes"`
	Meta  Meta             `json:"meta"`
}

// Options configures one bbox pass.
type Options struct {
	Width     int
	Height    int
	PadInches float64
	// MaxSampledPoints caps per-primitive point sampling so adversarially
	// dense point clouds stay bounded.
	MaxSampledPoints int
	// MarginPx pads sampled-point boxes so thin targets are comfortable to
	// click.
	MarginPx float64
}

// DefaultMaxSampledPoints bounds per-primitive sampling when Options leaves
// it zero. Kept a constant rather than scaled with panel area.
const DefaultMaxSampledPoints = 160

// thinCategories get a Points array in addition to the box.
var thinCategories = map[scene.Category]bool{
	scene.CategoryLine:      true,
	scene.CategoryStep:      true,
	scene.CategoryStairs:    true,
	scene.CategoryScatter:   true,
	scene.CategoryStem:      true,
	scene.CategoryQuiver:    true,
	scene.CategoryBarbs:     true,
	scene.CategoryEventplot: true,
}

// Extract measures every visible, non-degenerate primitive in every panel
// and returns its pixel-space box. Per-element measurement failures fall
// back to the owning panel's extent; elements whose box clamps away entirely
// are omitted rather than emitted as zero-area.
func Extract(s *scene.Scene, r render.Renderer, opts Options) (*Result, error) {
	if r == nil {
		return nil, fmt.Errorf("bbox: nil renderer")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("bbox: invalid output size %dx%d", opts.Width, opts.Height)
	}
	if opts.MaxSampledPoints <= 0 {
		opts.MaxSampledPoints = DefaultMaxSampledPoints
	}
	if opts.MarginPx <= 0 {
		opts.MarginPx = 3
	}

	mp := viewport.NewMapper(s.TightBounds(), s.DPI, opts.PadInches, opts.Width, opts.Height)
	ex := &extractor{s: s, r: r, mp: mp, opts: opts, boxes: make(map[string]Entry)}

	for i := range s.Panels {
		ex.panel(&s.Panels[i])
	}

	return &Result{
		Boxes: ex.boxes,
		Meta:  Meta{OutputWidth: opts.Width, OutputHeight: opts.Height, DPI: s.DPI},
	}, nil
}

type extractor struct {
	s     *scene.Scene
	r     render.Renderer
	mp    viewport.Mapper
	opts  Options
	boxes map[string]Entry
}

// panel walks one panel's primitives with the same eligibility and local
// index rules the hitmap processors use, so every key lines up.
func (ex *extractor) panel(panel *scene.Panel) {
	counters := make(map[scene.Category]int)

	for _, p := range panel.Primitives {
		if p == nil || !p.Visible || p.Degenerate() {
			continue
		}
		idx := counters[p.Category]
		counters[p.Category]++

		switch p.Category {
		case scene.CategoryBoxplot:
			ex.boxplot(panel, p, idx)
		case scene.CategoryScatter:
			ex.sampled(panel, p, hitmap.Key(panel.Index, p.Category, idx))
		default:
			ex.element(panel, p, hitmap.Key(panel.Index, p.Category, idx))
		}
	}
}

// boxplot emits one entry per sub-part, mirroring the role-suffixed sibling
// keys of the hitmap processor.
func (ex *extractor) boxplot(panel *scene.Panel, p *scene.Primitive, idx int) {
	roleCount := make(map[string]int)
	for _, child := range p.Children {
		if child == nil || !child.Visible || child.Degenerate() {
			continue
		}
		role := child.Role
		if role == "" {
			role = "part"
		}
		key := hitmap.SubKey(panel.Index, p.Category, idx, role)
		if n := roleCount[role]; n > 0 {
			key = fmt.Sprintf("%s%d", key, n)
		}
		roleCount[role]++

		ex.element(panel, child, key)
	}
}

// element measures a primitive via the renderer's extent API, transforms the
// result and stores the entry.
func (ex *extractor) element(panel *scene.Panel, p *scene.Primitive, key string) {
	dev, err := ex.r.Measure(ex.s, p)
	if err != nil {
		// degenerate or infinite extent: fall back to the whole panel so
		// the element stays selectable, rather than aborting the pass
		slog.Debug("bbox measure fallback", "key", key, "error", err)
		dev = panel.Rect
	}

	px, ok := ex.mp.Box(dev)
	if !ok {
		return
	}

	e := Entry{
		X: px.X, Y: px.Y, Width: px.Width, Height: px.Height,
		Category: p.Category, PanelIndex: panel.Index,
	}
	if thinCategories[p.Category] {
		e.Points = ex.samplePoints(p)
	}
	ex.boxes[key] = e
}

// sampled derives a point cloud's box from a bounded sample of transformed
// member points instead of the extent API, which over-reports for markers,
// and pads it by a small click margin.
func (ex *extractor) sampled(panel *scene.Panel, p *scene.Primitive, key string) {
	pts := ex.samplePoints(p)
	if len(pts) == 0 {
		ex.element(panel, p, key)
		return
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i] = pt[0]
		ys[i] = pt[1]
	}
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)

	m := ex.opts.MarginPx
	w, h := ex.mp.Size()
	x0 := max(minX-m, 0)
	y0 := max(minY-m, 0)
	x1 := min(maxX+m, float64(w))
	y1 := min(maxY+m, float64(h))
	if x1-x0 <= 0 || y1-y0 <= 0 {
		return
	}

	ex.boxes[key] = Entry{
		X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0,
		Category: p.Category, PanelIndex: panel.Index,
		Points: pts,
	}
}

// samplePoints collects the primitive's representative device points
// (polyline vertices, marker positions, segment endpoints, vector base and
// tip), transforms them to pixel space and decimates to the configured cap.
func (ex *extractor) samplePoints(p *scene.Primitive) [][2]float64 {
	var dev []viewport.Point
	p.Walk(func(c *scene.Primitive) {
		dev = append(dev, c.XY...)
		for _, sg := range c.Segments {
			dev = append(dev, viewport.Point{X: sg.X1, Y: sg.Y1}, viewport.Point{X: sg.X2, Y: sg.Y2})
		}
		for _, v := range c.Vectors {
			dev = append(dev, viewport.Point{X: v.X, Y: v.Y}, viewport.Point{X: v.X + v.DX, Y: v.Y + v.DY})
		}
	})
	if len(dev) == 0 {
		return nil
	}

	stride := 1
	if len(dev) > ex.opts.MaxSampledPoints {
		stride = (len(dev) + ex.opts.MaxSampledPoints - 1) / ex.opts.MaxSampledPoints
	}

	out := make([][2]float64, 0, min(len(dev), ex.opts.MaxSampledPoints))
	for i := 0; i < len(dev); i += stride {
		x, y := ex.mp.Point(dev[i].X, dev[i].Y)
		out = append(out, [2]float64{x, y})
	}
	return out
}
