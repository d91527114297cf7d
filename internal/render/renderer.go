// Package render defines the rendering collaborator contract the extraction
// passes depend on, and provides a pure-Go software implementation of it so
// the service is runnable without an external rendering engine.
package render

import (
	"errors"
	"image"

	"github.com/plotpick/plotpick/internal/scene"
	"github.com/plotpick/plotpick/internal/viewport"
)

// Options controls one render-to-raster call. Output resolution is
// caller-specified and independent of any on-screen resolution.
type Options struct {
	Width     int
	Height    int
	PadInches float64
	// Background is a color spec for the canvas behind all panels.
	Background string
	// Antialias selects smooth edges. The hitmap pass turns it off: every
	// painted pixel must carry an exactly decodable ID color, so coverage is
	// thresholded instead of blended.
	Antialias bool
}

// ErrMeasure reports that a primitive's device-space extent is degenerate,
// infinite or NaN. Callers fall back to the owning panel's extent.
var ErrMeasure = errors.New("render: unmeasurable primitive extent")

// Renderer is the contract the surrounding editor's rendering engine must
// satisfy: deterministic render-to-raster at arbitrary resolution, and
// per-primitive device-space extent measurement. Style access and primitive
// enumeration happen directly on the scene snapshot.
type Renderer interface {
	Render(s *scene.Scene, opts Options) (*image.NRGBA, error)
	Measure(s *scene.Scene, p *scene.Primitive) (viewport.Rect, error)
}
