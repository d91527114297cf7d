package viewport

// Mapper maps renderer device space onto output-image pixel space.
//
// Device space has its origin bottom-left and is measured in device units
// (DPI device units per inch, no padding). Pixel space has its origin
// top-left and covers the exported raster, which is the tight device bounds
// plus a fixed symmetric padding on every side.
//
// The pipeline is: device units → inches → shift by the tight origin and
// padding → vertical flip → per-axis scale to pixels → clamp.
type Mapper struct {
	m      Matrix2D
	width  float64 // output width in pixels
	height float64 // output height in pixels
	dpi    float64
	scaleX float64 // pixels per inch, x axis
	scaleY float64 // pixels per inch, y axis
}

// NewMapper builds a Mapper for a scene whose tight device-space content
// bounds are tight, rendered at dpi device units per inch with padInches of
// symmetric padding, onto an outW×outH raster.
func NewMapper(tight Rect, dpi, padInches float64, outW, outH int) Mapper {
	if dpi <= 0 {
		dpi = 100
	}
	if padInches < 0 {
		padInches = 0
	}

	totalW := tight.Width/dpi + 2*padInches
	totalH := tight.Height/dpi + 2*padInches

	sx := float64(outW) / totalW
	sy := float64(outH) / totalH

	// Composition is right-to-left: device→inches first, pixel scale last.
	m := Scale(sx, sy).
		Multiply(FlipY(totalH)).
		Multiply(Translate(padInches-tight.X/dpi, padInches-tight.Y/dpi)).
		Multiply(Scale(1/dpi, 1/dpi))

	return Mapper{
		m:      m,
		width:  float64(outW),
		height: float64(outH),
		dpi:    dpi,
		scaleX: sx,
		scaleY: sy,
	}
}

// Point maps a device-space point into pixel space, clamped to the raster.
func (mp Mapper) Point(x, y float64) (float64, float64) {
	px, py := mp.m.TransformPoint(x, y)
	return clamp(px, 0, mp.width), clamp(py, 0, mp.height)
}

// Box maps a device-space box into pixel space. The result is clamped into
// the raster; a box that clamps to non-positive width or height is rejected.
func (mp Mapper) Box(r Rect) (Rect, bool) {
	if !r.IsFinite() {
		return Rect{}, false
	}

	t := mp.m.TransformRect(r)

	x0 := clamp(t.X, 0, mp.width)
	y0 := clamp(t.Y, 0, mp.height)
	x1 := clamp(t.X+t.Width, 0, mp.width)
	y1 := clamp(t.Y+t.Height, 0, mp.height)

	out := Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	if out.IsEmpty() {
		return Rect{}, false
	}
	return out, true
}

// StrokePx converts a stroke width in device units to pixels, using the mean
// of the two axis scales so a round pen stays roughly round under
// anisotropic output sizes.
func (mp Mapper) StrokePx(deviceUnits float64) float64 {
	return deviceUnits / mp.dpi * (mp.scaleX + mp.scaleY) / 2
}

// Size returns the output raster size in pixels.
func (mp Mapper) Size() (int, int) {
	return int(mp.width), int(mp.height)
}

// DPI returns the device-unit density the mapper was built with.
func (mp Mapper) DPI() float64 {
	return mp.dpi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
