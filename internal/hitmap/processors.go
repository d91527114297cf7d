package hitmap

import (
	"fmt"

	"github.com/plotpick/plotpick/internal/colorcode"
	"github.com/plotpick/plotpick/internal/scene"
)

// processorFunc recolors and registers every matching, visible,
// non-degenerate, not-yet-consumed primitive of one category within one
// panel. Side effects are strictly limited to style properties; geometry,
// data and visibility are never touched.
type processorFunc func(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive)

// eligible applies the shared skip rules. The bbox extractor applies the
// same rules when counting local indices, which is what keeps the two maps'
// keys aligned.
func (st *passState) eligible(p *scene.Primitive) bool {
	return p != nil && p.Visible && !p.Degenerate() && !st.consumed[p]
}

// claim allocates the next color ID for an eligible primitive, backs up its
// style, repaints it and adds the registry entry. When the ID space is
// exhausted the element is counted as dropped and left in its original
// style; its key stays reserved so later elements keep their indices.
func (st *passState) claim(panel *scene.Panel, cat scene.Category, p *scene.Primitive, key, label, callID string) (int, bool) {
	st.consumed[p] = true

	id, ok := st.nextColorID()
	if !ok {
		st.registry.Dropped++
		return 0, false
	}

	st.recolor(p, id)

	c, _ := colorcode.Encode(id)
	st.registry.add(key, Entry{
		ColorID:    id,
		RGB:        [3]uint8{c.R, c.G, c.B},
		Category:   cat,
		Label:      label,
		PanelIndex: panel.Index,
		CallID:     callID,
	})
	return id, true
}

// recolor backs up the primitive's style and repaints both fill and stroke
// with the encoded ID color. Which channel the renderer actually uses
// depends on the category; painting both keeps every geometry kind covered.
func (st *passState) recolor(p *scene.Primitive, id int) {
	st.backups = append(st.backups, styleBackup{prim: p, style: p.Style})
	hex := colorcode.Hex(id)
	p.Style.Fill = hex
	p.Style.Stroke = hex
}

// recolorUnder repaints a composite child with an already-allocated ID so
// the whole glyph decodes to one element.
func (st *passState) recolorUnder(p *scene.Primitive, id int) {
	if p == nil || !p.Visible || st.consumed[p] {
		return
	}
	st.recolor(p, id)
	st.consumed[p] = true
}

// elementLabel prefers the upstream recording layer's call ID; otherwise it
// synthesizes one from the key parts.
func elementLabel(p *scene.Primitive, cat scene.Category, panel, index int) string {
	if p.CallID != "" {
		return p.CallID
	}
	return fmt.Sprintf("%s_%d_%d", cat, panel, index)
}

// registerFlat is the shared body of the non-composite processors: one
// element per primitive.
func registerFlat(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	for _, p := range prims {
		if !st.eligible(p) {
			continue
		}
		idx := st.localIndex(panel.Index, cat)
		st.claim(panel, cat, p, Key(panel.Index, cat, idx), elementLabel(p, cat, panel.Index, idx), p.CallID)
	}
}

func processSeries(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processScatter(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processRegion(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processBars(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processVectors(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processEvents(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

// processPie registers each wedge primitive as its own element; wedges of
// the same pie call share a CallID but remain individually selectable.
func processPie(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processMesh(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processImage(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

func processContour(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

// processGeneric handles category tags outside the priority table.
func processGeneric(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerFlat(st, panel, cat, prims)
}

// processBoxplot registers each sub-part of a boxplot glyph under a sibling
// ID with a role-suffixed key, so the editor can address the median,
// whiskers, caps and fliers independently of the box body.
func processBoxplot(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	for _, p := range prims {
		if !st.eligible(p) {
			continue
		}
		idx := st.localIndex(panel.Index, cat)
		base := elementLabel(p, cat, panel.Index, idx)
		st.consumed[p] = true

		roleCount := make(map[string]int)
		for _, child := range p.Children {
			if !st.eligible(child) {
				continue
			}
			role := child.Role
			if role == "" {
				role = "part"
			}
			key := SubKey(panel.Index, cat, idx, role)
			if n := roleCount[role]; n > 0 {
				key = fmt.Sprintf("%s%d", key, n)
			}
			roleCount[role]++

			st.claim(panel, cat, child, key, base+"_"+role, p.CallID)
		}
	}
}

// processViolin registers the whole glyph under a single ID: body, median
// bar and edge lines are visually one element.
func processViolin(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerComposite(st, panel, cat, prims)
}

// processStem registers baseline, stem lines and marker heads under one ID.
func processStem(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	registerComposite(st, panel, cat, prims)
}

// registerComposite claims the parent and repaints all children with the
// same color, producing exactly one registry entry for the glyph.
func registerComposite(st *passState, panel *scene.Panel, cat scene.Category, prims []*scene.Primitive) {
	for _, p := range prims {
		if !st.eligible(p) {
			continue
		}
		idx := st.localIndex(panel.Index, cat)
		id, ok := st.claim(panel, cat, p, Key(panel.Index, cat, idx), elementLabel(p, cat, panel.Index, idx), p.CallID)
		if !ok {
			continue
		}
		p.Walk(func(c *scene.Primitive) {
			if c != p {
				st.recolorUnder(c, id)
			}
		})
	}
}
