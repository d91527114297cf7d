package hitmap

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/plotpick/plotpick/internal/colorcode"
	"github.com/plotpick/plotpick/internal/render"
	"github.com/plotpick/plotpick/internal/scene"
)

// Options configures one hitmap pass.
type Options struct {
	Width     int
	Height    int
	PadInches float64
	// MaxID overrides the color capacity; zero means colorcode.MaxID.
	// Only tests lower it.
	MaxID int
}

// styleBackup records one primitive's pre-mutation style. Backups are taken
// before every mutation, so on any exit path the deferred restore unwinds
// exactly the set of primitives visited so far.
type styleBackup struct {
	prim  *scene.Primitive
	style scene.Style
}

type passState struct {
	registry *Registry
	backups  []styleBackup
	consumed map[*scene.Primitive]bool
	counters map[counterKey]int
	next     int
	maxID    int
}

type counterKey struct {
	panel int
	cat   scene.Category
}

// nextColorID hands out globally unique IDs across all panels of one pass.
func (st *passState) nextColorID() (int, bool) {
	if st.next > st.maxID {
		return 0, false
	}
	id := st.next
	st.next++
	return id, true
}

// localIndex allocates the next per-panel per-category element index.
func (st *passState) localIndex(panel int, cat scene.Category) int {
	k := counterKey{panel, cat}
	idx := st.counters[k]
	st.counters[k]++
	return idx
}

// restore puts every backed-up style back, newest first. A failure to
// restore one primitive is logged and does not stop the rest from being
// restored.
func (st *passState) restore() {
	for i := len(st.backups) - 1; i >= 0; i-- {
		b := st.backups[i]
		if b.prim == nil {
			slog.Error("restore style: primitive vanished mid-pass")
			continue
		}
		b.prim.Style = b.style
	}
	st.backups = st.backups[:0]
}

// Run executes one hitmap pass over a scene snapshot: recolor every
// selectable primitive with an encoded ID color, render once at the
// requested resolution, and return the raster together with the
// color→element registry. Styles are restored before returning on every
// exit path, including render failure; a failed pass returns no partial
// raster.
func Run(s *scene.Scene, r render.Renderer, opts Options) (img *image.NRGBA, reg *Registry, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("hitmap: nil renderer")
	}

	maxID := opts.MaxID
	if maxID <= 0 || maxID > colorcode.MaxID {
		maxID = colorcode.MaxID
	}

	st := &passState{
		registry: NewRegistry(),
		consumed: make(map[*scene.Primitive]bool),
		counters: make(map[counterKey]int),
		next:     1,
		maxID:    maxID,
	}
	defer st.restore()

	for i := range s.Panels {
		dispatchPanel(st, &s.Panels[i])
	}

	if st.registry.Dropped > 0 {
		slog.Warn("hitmap id space exhausted", "dropped", st.registry.Dropped, "maxId", maxID)
	}

	img, err = r.Render(s, render.Options{
		Width:      opts.Width,
		Height:     opts.Height,
		PadInches:  opts.PadInches,
		Background: colorcode.Hex(0),
		Antialias:  false,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("hitmap: render: %w", err)
	}

	return img, st.registry, nil
}

// PickPixel resolves one raster pixel of a hitmap image to its element key.
// The second return is false over the background or outside the raster.
func PickPixel(img *image.NRGBA, reg *Registry, x, y int) (string, Entry, bool) {
	if img == nil || reg == nil || !image.Pt(x, y).In(img.Bounds()) {
		return "", Entry{}, false
	}
	c := img.NRGBAAt(x, y)
	return reg.LookupColor(colorcode.DecodeRGB(c.R, c.G, c.B))
}
