// Package scene defines the snapshot data model both extraction passes read:
// a composite figure as an ordered list of panels, each owning an ordered
// list of visual primitives as the renderer produced them.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plotpick/plotpick/internal/viewport"
)

// Category identifies which plot family a primitive belongs to.
type Category string

const (
	CategoryLine         Category = "line"
	CategoryStep         Category = "step"
	CategoryScatter      Category = "scatter"
	CategoryBar          Category = "bar"
	CategoryHist         Category = "hist"
	CategoryFill         Category = "fill"
	CategoryFillBetweenX Category = "fill_betweenx"
	CategoryStackplot    Category = "stackplot"
	CategoryStairs       Category = "stairs"
	CategoryViolin       Category = "violin"
	CategoryBoxplot      Category = "boxplot"
	CategoryPie          Category = "pie"
	CategoryStem         Category = "stem"
	CategoryQuiver       Category = "quiver"
	CategoryBarbs        Category = "barbs"
	CategoryEventplot    Category = "eventplot"
	CategoryPcolormesh   Category = "pcolormesh"
	CategoryImshow       Category = "imshow"
	CategoryContour      Category = "contour"
)

// Style is the mutable visual state of a primitive. The hitmap pass swaps
// Fill and Stroke for an encoded ID color and restores them before
// returning; nothing else on a primitive is ever written.
type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"` // device units
	MarkerSize  float64 `json:"markerSize,omitempty"`
}

// Wedge is one pie slice: a circular sector around (CX, CY). Angles are in
// degrees, counter-clockwise from the positive x axis.
type Wedge struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	R      float64 `json:"r"`
	Theta1 float64 `json:"theta1"`
	Theta2 float64 `json:"theta2"`
}

// Segment is one detached line segment, used by event marks, stem lines and
// similar glyph parts that are not a connected polyline.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Vector is one quiver/barb arrow: base position plus displacement.
type Vector struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Primitive is one drawable unit. Geometry is a tagged union selected by
// Category: XY for series/points, Rects for bars and grid cells, Polygons
// for filled regions, Wedges for pie slices, Vectors for arrow fields.
// Composite glyphs (boxplot, violin, stem) additionally carry Children, each
// tagged with a Role naming the sub-part.
type Primitive struct {
	Category Category `json:"category"`
	CallID   string   `json:"callId,omitempty"` // assigned by the upstream recording layer
	Role     string   `json:"role,omitempty"`   // sub-part name on composite children
	Visible  bool     `json:"visible"`
	Style    Style    `json:"style"`

	XY       []viewport.Point   `json:"xy,omitempty"`
	Rects    []viewport.Rect    `json:"rects,omitempty"`
	Polygons [][]viewport.Point `json:"polygons,omitempty"`
	Wedges   []Wedge            `json:"wedges,omitempty"`
	Vectors  []Vector           `json:"vectors,omitempty"`
	Segments []Segment          `json:"segments,omitempty"`

	Children []*Primitive `json:"children,omitempty"`
}

// Panel is one sub-plot region of the figure, positioned in device space.
type Panel struct {
	Index      int             `json:"index"`
	Rect       viewport.Rect   `json:"rect"` // device space, origin bottom-left
	Primitives []*Primitive    `json:"primitives"`
	Meta       json.RawMessage `json:"meta,omitempty"` // opaque recording-layer payload
}

// Scene is an immutable-for-the-duration-of-extraction snapshot of a figure.
type Scene struct {
	ID     string  `json:"id,omitempty"`
	DPI    float64 `json:"dpi"` // device units per inch
	Panels []Panel `json:"panels"`
}

var ErrInvalidScene = errors.New("scene: invalid scene document")

// DefaultDPI is the device-unit density assumed when neither the document
// nor the caller specifies one.
const DefaultDPI = 100

// Parse decodes a scene document from JSON and applies defaults. defaultDPI
// substitutes for documents that omit their density; a non-positive value
// falls back to DefaultDPI. Panels are re-indexed in document order so keys
// are stable regardless of what the uploader wrote.
func Parse(data []byte, defaultDPI float64) (*Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if len(s.Panels) == 0 {
		return nil, fmt.Errorf("%w: no panels", ErrInvalidScene)
	}
	if s.DPI <= 0 {
		if defaultDPI > 0 {
			s.DPI = defaultDPI
		} else {
			s.DPI = DefaultDPI
		}
	}
	for i := range s.Panels {
		s.Panels[i].Index = i
		if s.Panels[i].Rect.IsEmpty() {
			return nil, fmt.Errorf("%w: panel %d has empty rect", ErrInvalidScene, i)
		}
	}
	return &s, nil
}

// TightBounds returns the union of all panel rects: the device-space content
// box the raster export is padded around.
func (s *Scene) TightBounds() viewport.Rect {
	var b viewport.Rect
	for i := range s.Panels {
		b = b.Union(s.Panels[i].Rect)
	}
	return b
}

// Degenerate reports whether the primitive carries no geometry at all, in
// which case neither pass registers it.
func (p *Primitive) Degenerate() bool {
	if len(p.XY) > 0 || len(p.Rects) > 0 || len(p.Wedges) > 0 || len(p.Vectors) > 0 || len(p.Segments) > 0 {
		return false
	}
	for _, ring := range p.Polygons {
		if len(ring) > 0 {
			return false
		}
	}
	for _, c := range p.Children {
		if !c.Degenerate() {
			return false
		}
	}
	return true
}

// Walk visits the primitive and all composite children depth-first.
func (p *Primitive) Walk(fn func(*Primitive)) {
	fn(p)
	for _, c := range p.Children {
		c.Walk(fn)
	}
}
