package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/plotpick/plotpick/internal/colorcode"
	"github.com/plotpick/plotpick/internal/scene"
	"github.com/plotpick/plotpick/internal/viewport"
)

// coverageThreshold is the coverage level at which a thresholded (hitmap)
// fill paints a pixel. 50% keeps adjacent elements from bleeding into each
// other along shared edges.
const coverageThreshold = 128

// minExtentPad is the device-unit pad applied to line-like extents so a
// horizontal polyline still measures to a non-empty box.
const minExtentPad = 0.75

// Raster is a software renderer drawing scenes with x/image coverage
// rasterization. It implements Renderer.
type Raster struct{}

func NewRaster() *Raster {
	return &Raster{}
}

func (ra *Raster) Render(s *scene.Scene, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: invalid output size %dx%d", opts.Width, opts.Height)
	}

	mp := viewport.NewMapper(s.TightBounds(), s.DPI, opts.PadInches, opts.Width, opts.Height)

	img := image.NewNRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	bg, ok := colorcode.Normalize(opts.Background)
	if !ok {
		bg = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cv := &canvas{img: img, mp: mp, antialias: opts.Antialias}
	for pi := range s.Panels {
		for _, prim := range s.Panels[pi].Primitives {
			cv.drawPrimitive(prim)
		}
	}
	return img, nil
}

// Measure returns the primitive's device-space extent: geometry bounds grown
// by half the stroke width and the marker radius. Composite children are
// unioned in.
func (ra *Raster) Measure(s *scene.Scene, p *scene.Primitive) (viewport.Rect, error) {
	b, ok := deviceExtent(p)
	if !ok || !b.IsFinite() || b.IsEmpty() {
		return viewport.Rect{}, ErrMeasure
	}
	return b, nil
}

// deviceExtent computes the raw extent; ok is false when no finite geometry
// contributed.
func deviceExtent(p *scene.Primitive) (viewport.Rect, bool) {
	var b viewport.Rect
	any := false
	pad := math.Max(p.Style.StrokeWidth/2, minExtentPad)
	if p.Style.MarkerSize > 0 {
		pad = math.Max(pad, p.Style.MarkerSize/2)
	}

	grow := func(r viewport.Rect) {
		if !r.IsFinite() {
			return
		}
		if !any {
			b = r
			any = true
			return
		}
		b = b.Union(r)
	}

	if len(p.XY) > 0 {
		grow(viewport.BoundsOf(p.XY).Expand(pad))
	}
	for _, r := range p.Rects {
		grow(r)
	}
	for _, ring := range p.Polygons {
		if len(ring) > 0 {
			grow(viewport.BoundsOf(ring))
		}
	}
	for _, w := range p.Wedges {
		grow(wedgeBounds(w))
	}
	if len(p.Vectors) > 0 {
		pts := make([]viewport.Point, 0, 2*len(p.Vectors))
		for _, v := range p.Vectors {
			pts = append(pts, viewport.Point{X: v.X, Y: v.Y}, viewport.Point{X: v.X + v.DX, Y: v.Y + v.DY})
		}
		grow(viewport.BoundsOf(pts).Expand(pad))
	}
	if len(p.Segments) > 0 {
		pts := make([]viewport.Point, 0, 2*len(p.Segments))
		for _, sg := range p.Segments {
			pts = append(pts, viewport.Point{X: sg.X1, Y: sg.Y1}, viewport.Point{X: sg.X2, Y: sg.Y2})
		}
		grow(viewport.BoundsOf(pts).Expand(pad))
	}
	for _, c := range p.Children {
		if cb, ok := deviceExtent(c); ok {
			grow(cb)
		}
	}

	return b, any
}

// wedgeBounds bounds a circular sector by its center plus arc samples. A
// sweep of a full turn or more covers the whole disc, so the sample count is
// fixed and never scales with the raw theta range.
func wedgeBounds(w scene.Wedge) viewport.Rect {
	t1, t2 := w.Theta1, w.Theta2
	if t2 < t1 {
		t1, t2 = t2, t1
	}
	if t2-t1 >= 360 {
		return viewport.Rect{X: w.CX - w.R, Y: w.CY - w.R, Width: 2 * w.R, Height: 2 * w.R}
	}

	const steps = 72 // at most 5° per sample
	pts := make([]viewport.Point, 0, steps+2)
	pts = append(pts, viewport.Point{X: w.CX, Y: w.CY})
	for i := 0; i <= steps; i++ {
		rad := (t1 + (t2-t1)*float64(i)/steps) * math.Pi / 180
		pts = append(pts, viewport.Point{X: w.CX + w.R*math.Cos(rad), Y: w.CY + w.R*math.Sin(rad)})
	}
	return viewport.BoundsOf(pts)
}

// canvas holds per-render state shared by the shape helpers.
type canvas struct {
	img       *image.NRGBA
	mp        viewport.Mapper
	antialias bool
}

func (cv *canvas) drawPrimitive(p *scene.Primitive) {
	if p == nil || !p.Visible {
		return
	}

	fill, hasFill := colorcode.Normalize(p.Style.Fill)
	stroke, hasStroke := colorcode.Normalize(p.Style.Stroke)
	if !hasFill {
		fill = stroke
	}
	if !hasStroke {
		stroke = fill
	}
	hasAny := hasFill || hasStroke
	strokePx := math.Max(cv.mp.StrokePx(p.Style.StrokeWidth), 1)
	markerPx := math.Max(cv.mp.StrokePx(p.Style.MarkerSize), 1.5)

	if hasAny {
		if len(p.XY) > 0 {
			if p.Style.MarkerSize > 0 {
				for _, pt := range p.XY {
					x, y := cv.mp.Point(pt.X, pt.Y)
					cv.fillPolygon(circlePoly(x, y, markerPx), fill)
				}
			} else {
				cv.strokePolyline(p.XY, strokePx, stroke)
			}
		}
		for _, r := range p.Rects {
			if rp, ok := cv.mp.Box(r); ok {
				cv.fillPolygon(rectPoly(rp), fill)
			}
		}
		for _, ring := range p.Polygons {
			if len(ring) < 3 {
				continue
			}
			px := cv.project(ring)
			if p.Category == scene.CategoryContour {
				cv.strokeRing(ring, strokePx, stroke)
			} else {
				cv.fillPolygon(px, fill)
			}
		}
		for _, w := range p.Wedges {
			cv.fillPolygon(cv.project(wedgePoly(w)), fill)
		}
		for _, v := range p.Vectors {
			cv.drawVector(v, p.Category, strokePx, stroke)
		}
		for _, sg := range p.Segments {
			cv.strokeSegmentDev(sg.X1, sg.Y1, sg.X2, sg.Y2, strokePx, stroke)
		}
	}

	for _, c := range p.Children {
		cv.drawPrimitive(c)
	}
}

func (cv *canvas) project(ring []viewport.Point) []viewport.Point {
	out := make([]viewport.Point, len(ring))
	for i, pt := range ring {
		x, y := cv.mp.Point(pt.X, pt.Y)
		out[i] = viewport.Point{X: x, Y: y}
	}
	return out
}

func (cv *canvas) strokePolyline(pts []viewport.Point, widthPx float64, col color.NRGBA) {
	px := cv.project(pts)
	for i := 0; i+1 < len(px); i++ {
		cv.fillPolygon(segmentQuad(px[i], px[i+1], widthPx), col)
	}
	// square joints/caps close the gaps between segment quads
	for _, pt := range px {
		h := widthPx / 2
		cv.fillPolygon([]viewport.Point{
			{X: pt.X - h, Y: pt.Y - h}, {X: pt.X + h, Y: pt.Y - h},
			{X: pt.X + h, Y: pt.Y + h}, {X: pt.X - h, Y: pt.Y + h},
		}, col)
	}
}

func (cv *canvas) strokeRing(ring []viewport.Point, widthPx float64, col color.NRGBA) {
	if len(ring) < 2 {
		return
	}
	closed := append(append([]viewport.Point(nil), ring...), ring[0])
	cv.strokePolyline(closed, widthPx, col)
}

func (cv *canvas) strokeSegmentDev(x1, y1, x2, y2, widthPx float64, col color.NRGBA) {
	ax, ay := cv.mp.Point(x1, y1)
	bx, by := cv.mp.Point(x2, y2)
	cv.fillPolygon(segmentQuad(viewport.Point{X: ax, Y: ay}, viewport.Point{X: bx, Y: by}, widthPx), col)
}

// drawVector draws one arrow: a shaft plus either a triangular head (quiver)
// or wind-barb style ticks (barbs).
func (cv *canvas) drawVector(v scene.Vector, cat scene.Category, widthPx float64, col color.NRGBA) {
	cv.strokeSegmentDev(v.X, v.Y, v.X+v.DX, v.Y+v.DY, widthPx, col)

	mag := math.Hypot(v.DX, v.DY)
	if mag == 0 {
		return
	}
	ux, uy := v.DX/mag, v.DY/mag
	tipX, tipY := v.X+v.DX, v.Y+v.DY

	if cat == scene.CategoryBarbs {
		// two ticks off the tip, perpendicular-ish to the shaft
		for i := 1; i <= 2; i++ {
			bx := tipX - float64(i)*0.25*mag*ux
			by := tipY - float64(i)*0.25*mag*uy
			cv.strokeSegmentDev(bx, by, bx-0.3*mag*uy, by+0.3*mag*ux, widthPx, col)
		}
		return
	}

	headLen := 0.3 * mag
	headHalf := 0.15 * mag
	baseX, baseY := tipX-headLen*ux, tipY-headLen*uy
	head := []viewport.Point{
		{X: tipX, Y: tipY},
		{X: baseX - headHalf*uy, Y: baseY + headHalf*ux},
		{X: baseX + headHalf*uy, Y: baseY - headHalf*ux},
	}
	cv.fillPolygon(cv.project(head), col)
}

// fillPolygon rasterizes one polygon given in pixel coordinates. In
// antialias mode coverage is alpha-blended; otherwise coverage is
// thresholded and painted as exact source color, which is what keeps hitmap
// pixels decodable.
func (cv *canvas) fillPolygon(pts []viewport.Point, col color.NRGBA) {
	if len(pts) < 3 || col.A == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	bounds := cv.img.Bounds()
	x0 := int(math.Floor(minX))
	y0 := int(math.Floor(minY))
	x1 := int(math.Ceil(maxX)) + 1
	y1 := int(math.Ceil(maxY)) + 1
	x0 = max(x0, bounds.Min.X)
	y0 = max(y0, bounds.Min.Y)
	x1 = min(x1, bounds.Max.X)
	y1 = min(y1, bounds.Max.Y)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	w, h := x1-x0, y1-y0
	z := vector.NewRasterizer(w, h)
	z.MoveTo(float32(pts[0].X-float64(x0)), float32(pts[0].Y-float64(y0)))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-float64(x0)), float32(p.Y-float64(y0)))
	}
	z.ClosePath()

	if cv.antialias {
		z.Draw(cv.img, image.Rect(x0, y0, x1, y1), image.NewUniform(col), image.Point{})
		return
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, a := range row {
			if a >= coverageThreshold {
				cv.img.SetNRGBA(x0+x, y0+y, col)
			}
		}
	}
}

// segmentQuad expands a pixel-space segment to a filled quad of the given
// width.
func segmentQuad(a, b viewport.Point, widthPx float64) []viewport.Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		h := widthPx / 2
		return []viewport.Point{
			{X: a.X - h, Y: a.Y - h}, {X: a.X + h, Y: a.Y - h},
			{X: a.X + h, Y: a.Y + h}, {X: a.X - h, Y: a.Y + h},
		}
	}
	nx, ny := -dy/l*widthPx/2, dx/l*widthPx/2
	return []viewport.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}
}

func rectPoly(r viewport.Rect) []viewport.Point {
	return []viewport.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

func circlePoly(cx, cy, r float64) []viewport.Point {
	const steps = 20
	pts := make([]viewport.Point, steps)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / steps
		pts[i] = viewport.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

// wedgePoly builds the device-space outline of a circular sector. The sweep
// is clamped to one full turn and the arc sample count is capped, so outline
// size never scales with the raw theta range.
func wedgePoly(w scene.Wedge) []viewport.Point {
	t1, t2 := w.Theta1, w.Theta2
	if t2 < t1 {
		t1, t2 = t2, t1
	}
	sweep := math.Min(t2-t1, 360)
	steps := min(max(int(sweep/6), 2), 60)

	pts := make([]viewport.Point, 0, steps+2)
	pts = append(pts, viewport.Point{X: w.CX, Y: w.CY})
	for i := 0; i <= steps; i++ {
		a := (t1 + sweep*float64(i)/float64(steps)) * math.Pi / 180
		pts = append(pts, viewport.Point{X: w.CX + w.R*math.Cos(a), Y: w.CY + w.R*math.Sin(a)})
	}
	return pts
}
