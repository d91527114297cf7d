package hitmap

import (
	"github.com/plotpick/plotpick/internal/scene"
)

// categoryOrder fixes the processing priority within a panel. Composite
// categories come first: a boxplot's median line or a stem's baseline are
// plain line primitives at the renderer level, and whichever processor
// claims them first owns them. Processing composites before the generic
// series/bar processors and marking their sub-primitives consumed is what
// prevents a median line from being registered as a line series.
var categoryOrder = []scene.Category{
	scene.CategoryBoxplot,
	scene.CategoryViolin,
	scene.CategoryStem,
	scene.CategoryFill,
	scene.CategoryFillBetweenX,
	scene.CategoryStackplot,
	scene.CategoryStairs,
	scene.CategoryStep,
	scene.CategoryLine,
	scene.CategoryScatter,
	scene.CategoryBar,
	scene.CategoryHist,
	scene.CategoryQuiver,
	scene.CategoryBarbs,
	scene.CategoryEventplot,
	scene.CategoryPie,
	scene.CategoryPcolormesh,
	scene.CategoryImshow,
	scene.CategoryContour,
}

var processors = map[scene.Category]processorFunc{
	scene.CategoryBoxplot:      processBoxplot,
	scene.CategoryViolin:       processViolin,
	scene.CategoryStem:         processStem,
	scene.CategoryFill:         processRegion,
	scene.CategoryFillBetweenX: processRegion,
	scene.CategoryStackplot:    processRegion,
	scene.CategoryStairs:       processRegion,
	scene.CategoryStep:         processSeries,
	scene.CategoryLine:         processSeries,
	scene.CategoryScatter:      processScatter,
	scene.CategoryBar:          processBars,
	scene.CategoryHist:         processBars,
	scene.CategoryQuiver:       processVectors,
	scene.CategoryBarbs:        processVectors,
	scene.CategoryEventplot:    processEvents,
	scene.CategoryPie:          processPie,
	scene.CategoryPcolormesh:   processMesh,
	scene.CategoryImshow:       processImage,
	scene.CategoryContour:      processContour,
}

// dispatchPanel routes a panel's primitives through the per-category
// processors in priority order. Category tags outside the priority table are
// still dispatched afterwards, in encounter order, through the generic
// processor, so unanticipated categories degrade to plain registration
// instead of being dropped.
func dispatchPanel(st *passState, panel *scene.Panel) {
	byCat := make(map[scene.Category][]*scene.Primitive)
	var extras []scene.Category
	for _, p := range panel.Primitives {
		if _, known := processors[p.Category]; !known {
			if _, seen := byCat[p.Category]; !seen {
				extras = append(extras, p.Category)
			}
		}
		byCat[p.Category] = append(byCat[p.Category], p)
	}

	for _, cat := range categoryOrder {
		prims, ok := byCat[cat]
		if !ok {
			continue
		}
		processors[cat](st, panel, cat, prims)
		delete(byCat, cat)
	}

	for _, cat := range extras {
		processGeneric(st, panel, cat, byCat[cat])
	}
}
