package scene

import (
	"math"
	"math/rand"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/plotpick/plotpick/internal/typeid"
	"github.com/plotpick/plotpick/internal/viewport"
)

// NewSampleScene builds the playground scene: two panels that between them
// contain at least one primitive of every category tag. Tests lean on it,
// and it backs the scene_playground ID so a frontend can pick against a
// known figure without uploading anything.
func NewSampleScene() *Scene {
	rng := rand.New(rand.NewSource(42))
	pal := colorful.FastHappyPalette(12)
	hex := func(i int) string { return pal[i%len(pal)].Hex() }

	p0 := Panel{Index: 0, Rect: viewport.Rect{X: 40, Y: 40, Width: 360, Height: 240}}
	p1 := Panel{Index: 1, Rect: viewport.Rect{X: 440, Y: 40, Width: 360, Height: 240}}

	// panel 0: series, bars, fill, boxplot, pie
	line := make([]viewport.Point, 24)
	for i := range line {
		t := float64(i) / 23
		line[i] = viewport.Point{X: 60 + 320*t, Y: 160 + 80*math.Sin(t*2*math.Pi)}
	}
	p0.Primitives = append(p0.Primitives, &Primitive{
		Category: CategoryLine, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(0), StrokeWidth: 2},
		XY:    line,
	})

	scatter := make([]viewport.Point, 40)
	for i := range scatter {
		scatter[i] = viewport.Point{X: 60 + 320*rng.Float64(), Y: 60 + 200*rng.Float64()}
	}
	p0.Primitives = append(p0.Primitives, &Primitive{
		Category: CategoryScatter, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(1), MarkerSize: 4},
		XY:    scatter,
	})

	bars := make([]viewport.Rect, 5)
	for i := range bars {
		h := 30 + 25*float64(i%3+1)
		bars[i] = viewport.Rect{X: 70 + 60*float64(i), Y: 45, Width: 36, Height: h}
	}
	p0.Primitives = append(p0.Primitives, &Primitive{
		Category: CategoryBar, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(2)},
		Rects: bars,
	})

	p0.Primitives = append(p0.Primitives, &Primitive{
		Category: CategoryFill, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(3)},
		Polygons: [][]viewport.Point{{
			{X: 240, Y: 200}, {X: 300, Y: 260}, {X: 380, Y: 240}, {X: 350, Y: 190},
		}},
	})

	step := make([]viewport.Point, 0, 14)
	for i := 0; i < 7; i++ {
		x0, x1 := 60+48*float64(i), 60+48*float64(i+1)
		y := 90 + 20*float64(i%3)
		step = append(step, viewport.Point{X: x0, Y: y}, viewport.Point{X: x1, Y: y})
	}
	p0.Primitives = append(p0.Primitives, &Primitive{
		Category: CategoryStep, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(4), StrokeWidth: 1.5},
		XY:    step,
	})

	samples := make([]float64, 40)
	for i := range samples {
		samples[i] = 160 + 40*rng.NormFloat64()
	}
	p0.Primitives = append(p0.Primitives, boxplotGlyph(360, 24, samples, hex(5)))

	pieCall := typeid.NewCallID()
	angles := [...]float64{0, 130, 220, 300, 360}
	for i := 0; i < 4; i++ {
		p0.Primitives = append(p0.Primitives, &Primitive{
			Category: CategoryPie, CallID: pieCall, Visible: true,
			Style:  Style{Fill: hex(6 + i)},
			Wedges: []Wedge{{CX: 200, CY: 150, R: 40, Theta1: angles[i], Theta2: angles[i+1]}},
		})
	}

	// panel 1: statistical/vector/raster categories
	p1.Primitives = append(p1.Primitives, violinGlyph(480, 26, samples, hex(7)))
	p1.Primitives = append(p1.Primitives, stemGlyph(520, 620, 60, rng, hex(8)))

	hist := make([]viewport.Rect, 6)
	for i := range hist {
		h := 20 + 60*math.Exp(-math.Pow(float64(i)-2.5, 2)/2)
		hist[i] = viewport.Rect{X: 460 + 28*float64(i), Y: 45, Width: 26, Height: h}
	}
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryHist, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(9)},
		Rects: hist,
	})

	var quiver, barbs []Vector
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			x, y := 650+30*float64(i), 70+30*float64(j)
			quiver = append(quiver, Vector{X: x, Y: y, DX: 14 * math.Cos(float64(i+j)), DY: 14 * math.Sin(float64(i+j))})
			barbs = append(barbs, Vector{X: x, Y: y + 100, DX: 12, DY: 6 * float64(j-1)})
		}
	}
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryQuiver, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(10), StrokeWidth: 1.2}, Vectors: quiver,
	})
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryBarbs, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(11), StrokeWidth: 1.2}, Vectors: barbs,
	})

	events := make([]Segment, 12)
	for i := range events {
		x := 460 + 25*float64(i) + 5*rng.Float64()
		events[i] = Segment{X1: x, Y1: 250, X2: x, Y2: 266}
	}
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryEventplot, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(0), StrokeWidth: 1}, Segments: events,
	})

	mesh := make([]viewport.Rect, 0, 12)
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			mesh = append(mesh, viewport.Rect{X: 460 + 20*float64(i), Y: 170 + 20*float64(j), Width: 20, Height: 20})
		}
	}
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryPcolormesh, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(1)}, Rects: mesh,
	})
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryImshow, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(2)},
		Rects: []viewport.Rect{{X: 560, Y: 170, Width: 70, Height: 60}},
	})

	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryContour, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(3), StrokeWidth: 1},
		Polygons: [][]viewport.Point{
			ellipseRing(700, 200, 50, 30, 20),
			ellipseRing(700, 200, 30, 16, 20),
		},
	})

	stairs := make([]viewport.Point, 0, 12)
	for i := 0; i < 6; i++ {
		x0, x1 := 640+26*float64(i), 640+26*float64(i+1)
		y := 45 + 14*float64(i)
		stairs = append(stairs, viewport.Point{X: x0, Y: y}, viewport.Point{X: x1, Y: y})
	}
	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryStairs, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: hex(4), StrokeWidth: 1.5}, XY: stairs,
	})

	stackCall := typeid.NewCallID()
	for layer := 0; layer < 2; layer++ {
		ring := make([]viewport.Point, 0, 14)
		for i := 0; i <= 5; i++ {
			x := 460 + 30*float64(i)
			ring = append(ring, viewport.Point{X: x, Y: 130 + 12*float64(layer) + 6*math.Sin(float64(i)+float64(layer))})
		}
		for i := 5; i >= 0; i-- {
			x := 460 + 30*float64(i)
			ring = append(ring, viewport.Point{X: x, Y: 118 + 12*float64(layer) + 6*math.Sin(float64(i)+float64(layer))})
		}
		p1.Primitives = append(p1.Primitives, &Primitive{
			Category: CategoryStackplot, CallID: stackCall, Visible: true,
			Style: Style{Fill: hex(5 + layer)}, Polygons: [][]viewport.Point{ring},
		})
	}

	p1.Primitives = append(p1.Primitives, &Primitive{
		Category: CategoryFillBetweenX, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: hex(8)},
		Polygons: [][]viewport.Point{{
			{X: 650, Y: 45}, {X: 690, Y: 45}, {X: 700, Y: 100}, {X: 660, Y: 100},
		}},
	})

	return &Scene{ID: "scene_playground", DPI: DefaultDPI, Panels: []Panel{p0, p1}}
}

// boxplotGlyph builds a boxplot composite from raw samples: quartile box,
// median line, whiskers with caps, and outlier fliers, the same low-level
// parts the renderer would have produced for a real boxplot call.
func boxplotGlyph(cx, halfW float64, samples []float64, col string) *Primitive {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1

	var fliers []viewport.Point
	for _, v := range sorted {
		if v < q1-1.5*iqr || v > q3+1.5*iqr {
			fliers = append(fliers, viewport.Point{X: cx, Y: v})
		}
	}
	lo := math.Max(sorted[0], q1-1.5*iqr)
	hi := math.Min(sorted[len(sorted)-1], q3+1.5*iqr)

	glyph := &Primitive{
		Category: CategoryBoxplot, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: col, StrokeWidth: 1.5},
		Children: []*Primitive{
			{Category: CategoryBoxplot, Role: "box", Visible: true,
				Style: Style{Fill: col, Stroke: col, StrokeWidth: 1.5},
				Rects: []viewport.Rect{{X: cx - halfW, Y: q1, Width: 2 * halfW, Height: q3 - q1}}},
			{Category: CategoryBoxplot, Role: "median", Visible: true,
				Style: Style{Stroke: "#000000", StrokeWidth: 2},
				XY:    []viewport.Point{{X: cx - halfW, Y: med}, {X: cx + halfW, Y: med}}},
			{Category: CategoryBoxplot, Role: "whisker", Visible: true,
				Style: Style{Stroke: col, StrokeWidth: 1},
				Segments: []Segment{
					{X1: cx, Y1: q1, X2: cx, Y2: lo},
					{X1: cx, Y1: q3, X2: cx, Y2: hi},
				}},
			{Category: CategoryBoxplot, Role: "cap", Visible: true,
				Style: Style{Stroke: col, StrokeWidth: 1},
				Segments: []Segment{
					{X1: cx - halfW/2, Y1: lo, X2: cx + halfW/2, Y2: lo},
					{X1: cx - halfW/2, Y1: hi, X2: cx + halfW/2, Y2: hi},
				}},
		},
	}
	if len(fliers) > 0 {
		glyph.Children = append(glyph.Children, &Primitive{
			Category: CategoryBoxplot, Role: "flier", Visible: true,
			Style: Style{Fill: col, MarkerSize: 3}, XY: fliers,
		})
	}
	return glyph
}

// violinGlyph builds a violin composite: a kernel-density outline mirrored
// around cx, plus a median bar.
func violinGlyph(cx, halfW float64, samples []float64, col string) *Primitive {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	bw := (hi - lo) / 8
	const steps = 20
	dens := make([]float64, steps+1)
	maxD := 0.0
	for i := 0; i <= steps; i++ {
		y := lo + (hi-lo)*float64(i)/steps
		for _, v := range sorted {
			u := (y - v) / bw
			dens[i] += math.Exp(-u * u / 2)
		}
		maxD = math.Max(maxD, dens[i])
	}

	ring := make([]viewport.Point, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		y := lo + (hi-lo)*float64(i)/steps
		ring = append(ring, viewport.Point{X: cx + halfW*dens[i]/maxD, Y: y})
	}
	for i := steps; i >= 0; i-- {
		y := lo + (hi-lo)*float64(i)/steps
		ring = append(ring, viewport.Point{X: cx - halfW*dens[i]/maxD, Y: y})
	}

	return &Primitive{
		Category: CategoryViolin, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Fill: col},
		Children: []*Primitive{
			{Category: CategoryViolin, Role: "body", Visible: true,
				Style: Style{Fill: col}, Polygons: [][]viewport.Point{ring}},
			{Category: CategoryViolin, Role: "median", Visible: true,
				Style: Style{Stroke: "#000000", StrokeWidth: 2},
				XY:    []viewport.Point{{X: cx - halfW/3, Y: med}, {X: cx + halfW/3, Y: med}}},
		},
	}
}

// stemGlyph builds a stem composite: baseline, vertical stem lines and the
// marker heads, all one logical element.
func stemGlyph(x0, x1, baseY float64, rng *rand.Rand, col string) *Primitive {
	const n = 8
	heads := make([]viewport.Point, n)
	stems := make([]Segment, n)
	for i := 0; i < n; i++ {
		x := x0 + (x1-x0)*float64(i)/(n-1)
		y := baseY + 20 + 60*rng.Float64()
		heads[i] = viewport.Point{X: x, Y: y}
		stems[i] = Segment{X1: x, Y1: baseY, X2: x, Y2: y}
	}

	return &Primitive{
		Category: CategoryStem, CallID: typeid.NewCallID(), Visible: true,
		Style: Style{Stroke: col, StrokeWidth: 1.2},
		Children: []*Primitive{
			{Category: CategoryStem, Role: "baseline", Visible: true,
				Style: Style{Stroke: col, StrokeWidth: 1},
				XY:    []viewport.Point{{X: x0, Y: baseY}, {X: x1, Y: baseY}}},
			{Category: CategoryStem, Role: "stemlines", Visible: true,
				Style: Style{Stroke: col, StrokeWidth: 1.2}, Segments: stems},
			{Category: CategoryStem, Role: "markers", Visible: true,
				Style: Style{Fill: col, MarkerSize: 3.5}, XY: heads},
		},
	}
}

func ellipseRing(cx, cy, rx, ry float64, steps int) []viewport.Point {
	ring := make([]viewport.Point, steps)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / float64(steps)
		ring[i] = viewport.Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)}
	}
	return ring
}
