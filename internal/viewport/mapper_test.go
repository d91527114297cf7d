package viewport

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestMapperNoPadding(t *testing.T) {
	// 800x600 device units at 100 dpi onto an 800x600 raster: 100 px/in,
	// so device units map 1:1 with only the vertical flip.
	mp := NewMapper(Rect{X: 0, Y: 0, Width: 800, Height: 600}, 100, 0, 800, 600)

	tests := []struct {
		dx, dy float64
		px, py float64
	}{
		{0, 0, 0, 600},     // device origin is the bottom-left pixel corner
		{800, 600, 800, 0}, // top-right corner
		{400, 300, 400, 300},
		{800, 0, 800, 600},
	}
	for _, tt := range tests {
		gx, gy := mp.Point(tt.dx, tt.dy)
		if !approx(gx, tt.px) || !approx(gy, tt.py) {
			t.Errorf("Point(%v,%v) = (%v,%v), want (%v,%v)", tt.dx, tt.dy, gx, gy, tt.px, tt.py)
		}
	}
}

func TestMapperPadding(t *testing.T) {
	// 800x600 device units at 100 dpi plus 0.1in padding: total 8.2x6.2in.
	// An 820x620 raster keeps the scale at exactly 100 px/in.
	mp := NewMapper(Rect{X: 0, Y: 0, Width: 800, Height: 600}, 100, 0.1, 820, 620)

	gx, gy := mp.Point(0, 0)
	if !approx(gx, 10) || !approx(gy, 610) {
		t.Errorf("Point(0,0) = (%v,%v), want (10,610)", gx, gy)
	}
	gx, gy = mp.Point(800, 600)
	if !approx(gx, 810) || !approx(gy, 10) {
		t.Errorf("Point(800,600) = (%v,%v), want (810,10)", gx, gy)
	}
}

func TestMapperTightOriginShift(t *testing.T) {
	// Content that does not start at the device origin is shifted so its
	// lower-left corner lands on the padded raster edge.
	mp := NewMapper(Rect{X: 100, Y: 50, Width: 200, Height: 100}, 100, 0, 400, 200)

	gx, gy := mp.Point(100, 50)
	if !approx(gx, 0) || !approx(gy, 200) {
		t.Errorf("Point(100,50) = (%v,%v), want (0,200)", gx, gy)
	}
	gx, gy = mp.Point(300, 150)
	if !approx(gx, 400) || !approx(gy, 0) {
		t.Errorf("Point(300,150) = (%v,%v), want (400,0)", gx, gy)
	}
}

func TestMapperClamping(t *testing.T) {
	mp := NewMapper(Rect{X: 0, Y: 0, Width: 800, Height: 600}, 100, 0, 800, 600)

	gx, gy := mp.Point(-5000, 9000)
	if gx != 0 || gy != 0 {
		t.Errorf("out-of-range point not clamped: (%v,%v)", gx, gy)
	}
	gx, gy = mp.Point(5000, -9000)
	if gx != 800 || gy != 600 {
		t.Errorf("out-of-range point not clamped: (%v,%v)", gx, gy)
	}
}

func TestMapperBox(t *testing.T) {
	mp := NewMapper(Rect{X: 0, Y: 0, Width: 800, Height: 600}, 100, 0, 800, 600)

	// Device box {100,100,200,100}: top edge at device y=200 maps to pixel
	// y=400, so the pixel box starts there.
	box, ok := mp.Box(Rect{X: 100, Y: 100, Width: 200, Height: 100})
	if !ok {
		t.Fatal("Box rejected a valid rect")
	}
	want := Rect{X: 100, Y: 400, Width: 200, Height: 100}
	for _, pair := range [][2]float64{{box.X, want.X}, {box.Y, want.Y}, {box.Width, want.Width}, {box.Height, want.Height}} {
		if !approx(pair[0], pair[1]) {
			t.Fatalf("Box = %+v, want %+v", box, want)
		}
	}

	// Entirely outside the raster clamps to nothing.
	if _, ok := mp.Box(Rect{X: -500, Y: -500, Width: 100, Height: 100}); ok {
		t.Error("Box should reject a rect that clamps away")
	}
	// Non-finite input.
	if _, ok := mp.Box(Rect{X: math.NaN(), Y: 0, Width: 10, Height: 10}); ok {
		t.Error("Box should reject a non-finite rect")
	}
	// Zero area.
	if _, ok := mp.Box(Rect{X: 10, Y: 10, Width: 0, Height: 5}); ok {
		t.Error("Box should reject a zero-width rect")
	}
}

func TestMapperStrokePx(t *testing.T) {
	// Anisotropic output: 200 px/in on x, 100 px/in on y. A stroke uses the
	// mean scale.
	mp := NewMapper(Rect{X: 0, Y: 0, Width: 800, Height: 600}, 100, 0, 1600, 600)
	if got := mp.StrokePx(2); !approx(got, 3) {
		t.Errorf("StrokePx(2) = %v, want 3", got)
	}
}

func TestBoundsOf(t *testing.T) {
	pts := []Point{{X: 3, Y: 7}, {X: -1, Y: 2}, {X: 5, Y: 4}}
	got := BoundsOf(pts)
	want := Rect{X: -1, Y: 2, Width: 6, Height: 5}
	if got != want {
		t.Errorf("BoundsOf = %+v, want %+v", got, want)
	}
	if !BoundsOf(nil).IsEmpty() {
		t.Error("BoundsOf(nil) should be empty")
	}
}

func TestMatrixComposition(t *testing.T) {
	// Translate then scale, composed right-to-left.
	m := Scale(2, 2).Multiply(Translate(1, 1))
	x, y := m.TransformPoint(3, 4)
	if !approx(x, 8) || !approx(y, 10) {
		t.Errorf("TransformPoint = (%v,%v), want (8,10)", x, y)
	}

	id := Identity()
	x, y = id.TransformPoint(3.5, -2.25)
	if x != 3.5 || y != -2.25 {
		t.Errorf("Identity moved the point: (%v,%v)", x, y)
	}
}

func TestTransformRectNormalizes(t *testing.T) {
	// FlipY inverts the y extent; the transformed rect must come back
	// normalized with positive height.
	m := FlipY(10)
	r := m.TransformRect(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	if r.Height <= 0 || r.Width <= 0 {
		t.Fatalf("TransformRect not normalized: %+v", r)
	}
	want := Rect{X: 1, Y: 4, Width: 3, Height: 4}
	if r != want {
		t.Errorf("TransformRect = %+v, want %+v", r, want)
	}
}
