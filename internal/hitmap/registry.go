// Package hitmap implements the temporary-recolor-and-render pass: every
// selectable primitive is repainted with an encoded ID color, the scene is
// rendered once, and the resulting raster plus the color→element registry
// let the editor resolve any pixel to the element underneath it.
package hitmap

import (
	"fmt"

	"github.com/plotpick/plotpick/internal/scene"
)

// Entry describes one registered element of a hitmap pass.
type Entry struct {
	ColorID    int            `json:"colorId"`
	RGB        [3]uint8       `json:"rgb"`
	Category   scene.Category `json:"category"`
	Label      string         `json:"label"`
	PanelIndex int            `json:"panelIndex"`
	CallID     string         `json:"callId,omitempty"`
}

// Registry is the shared result map of one hitmap pass. Keys follow the
// panel{N}_{category}{localIndex} convention that the bbox pass also uses,
// so a client can correlate a clicked color with its geometry directly.
type Registry struct {
	Elements map[string]Entry `json:"elements"`
	// Dropped counts elements that could not be registered because the ID
	// space was exhausted. They render in their original style and are not
	// selectable.
	Dropped int `json:"dropped,omitempty"`

	byColor map[int]string
}

func NewRegistry() *Registry {
	return &Registry{
		Elements: make(map[string]Entry),
		byColor:  make(map[int]string),
	}
}

func (r *Registry) add(key string, e Entry) {
	r.Elements[key] = e
	r.byColor[e.ColorID] = key
}

// LookupColor resolves a decoded color ID back to its element. ID 0 (the
// background) never resolves.
func (r *Registry) LookupColor(id int) (string, Entry, bool) {
	if id == 0 {
		return "", Entry{}, false
	}
	key, ok := r.byColor[id]
	if !ok {
		return "", Entry{}, false
	}
	return key, r.Elements[key], true
}

// Key builds the shared map key for one element.
func Key(panel int, cat scene.Category, localIndex int) string {
	return fmt.Sprintf("panel%d_%s%d", panel, cat, localIndex)
}

// SubKey addresses an independently selectable sub-part of a composite
// element, e.g. panel0_boxplot0_median.
func SubKey(panel int, cat scene.Category, localIndex int, role string) string {
	return Key(panel, cat, localIndex) + "_" + role
}
