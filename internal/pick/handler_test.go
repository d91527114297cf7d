package pick

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/plotpick/plotpick/internal/bbox"
	"github.com/plotpick/plotpick/internal/config"
	"github.com/plotpick/plotpick/internal/render"
	"github.com/plotpick/plotpick/internal/scene"
	"github.com/plotpick/plotpick/internal/viewport"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:             8080,
		DPI:              100,
		PadInches:        0,
		MaxSampledPoints: 160,
		MaxScenes:        4,
		MaxOutputDim:     4096,
	}
}

func newTestRouter(cfg *config.Config) *mux.Router {
	svc := NewService(cfg, render.NewRaster())
	h := NewHandler(svc, cfg)

	r := mux.NewRouter()
	r.HandleFunc("/scenes", h.UploadScene).Methods("POST")
	r.HandleFunc("/scenes/{sceneId}/hitmap", h.GetHitmap).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}/bboxes", h.GetBBoxes).Methods("GET")
	r.HandleFunc("/pick/hitmap", h.PickHitmap).Methods("POST")
	r.HandleFunc("/pick/bboxes", h.PickBBoxes).Methods("POST")
	return r
}

// scenarioDoc is a one-panel figure with a 3-point line and a 5-point
// scatter.
func scenarioDoc(t *testing.T) []byte {
	t.Helper()
	s := scene.Scene{
		DPI: 100,
		Panels: []scene.Panel{{
			Rect: viewport.Rect{X: 0, Y: 0, Width: 400, Height: 300},
			Primitives: []*scene.Primitive{
				{
					Category: scene.CategoryLine, Visible: true,
					Style: scene.Style{Stroke: "tab:blue", StrokeWidth: 2},
					XY:    []viewport.Point{{X: 50, Y: 50}, {X: 200, Y: 220}, {X: 350, Y: 120}},
				},
				{
					Category: scene.CategoryScatter, Visible: true,
					Style: scene.Style{Fill: "#d62728", MarkerSize: 6},
					XY: []viewport.Point{
						{X: 80, Y: 100}, {X: 140, Y: 180}, {X: 210, Y: 90},
						{X: 280, Y: 200}, {X: 330, Y: 60},
					},
				},
			},
		}},
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal scenario: %v", err)
	}
	return data
}

func uploadScene(t *testing.T, router *mux.Router, doc []byte) string {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/scenes", bytes.NewReader(doc)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp["sceneId"] == "" {
		t.Fatal("upload returned no sceneId")
	}
	return resp["sceneId"]
}

func TestScenarioBothPasses(t *testing.T) {
	router := newTestRouter(testConfig())
	id := uploadScene(t, router, scenarioDoc(t))

	// hitmap pass
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scenes/"+id+"/hitmap?width=800&height=600", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("hitmap status %d: %s", rec.Code, rec.Body.String())
	}
	var hm HitmapResult
	if err := json.Unmarshal(rec.Body.Bytes(), &hm); err != nil {
		t.Fatalf("decode hitmap: %v", err)
	}

	if len(hm.Elements) != 2 {
		t.Fatalf("hitmap has %d elements, want 2: %v", len(hm.Elements), hm.Elements)
	}
	line, ok := hm.Elements["panel0_line0"]
	if !ok {
		t.Fatal("missing panel0_line0")
	}
	sc, ok := hm.Elements["panel0_scatter0"]
	if !ok {
		t.Fatal("missing panel0_scatter0")
	}
	if line.RGB == sc.RGB {
		t.Error("line and scatter share an ID color")
	}
	if hm.Meta.OutputWidth != 800 || hm.Meta.OutputHeight != 600 || hm.Meta.DPI != 100 {
		t.Errorf("hitmap meta = %+v", hm.Meta)
	}
	img, err := png.Decode(bytes.NewReader(hm.Image))
	if err != nil {
		t.Fatalf("decode embedded png: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 600 {
		t.Errorf("embedded raster size %v", img.Bounds())
	}

	// bbox pass against the same stored scene
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scenes/"+id+"/bboxes?width=800&height=600", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("bbox status %d: %s", rec.Code, rec.Body.String())
	}
	var bb bbox.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &bb); err != nil {
		t.Fatalf("decode bboxes: %v", err)
	}
	if len(bb.Boxes) != 2 {
		t.Fatalf("bbox has %d entries, want 2: %v", len(bb.Boxes), bb.Boxes)
	}
	for _, key := range []string{"panel0_line0", "panel0_scatter0"} {
		e, ok := bb.Boxes[key]
		if !ok {
			t.Errorf("bbox missing key %s", key)
			continue
		}
		if e.Width <= 0 || e.Height <= 0 {
			t.Errorf("%s box %vx%v", key, e.Width, e.Height)
		}
		if e.X < 0 || e.Y < 0 || e.X+e.Width > 800 || e.Y+e.Height > 600 {
			t.Errorf("%s box out of raster: %+v", key, e)
		}
	}
}

func TestHitmapPNGFormat(t *testing.T) {
	router := newTestRouter(testConfig())
	id := uploadScene(t, router, scenarioDoc(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scenes/"+id+"/hitmap?width=200&height=150&format=png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %s", ct)
	}
	if _, err := png.Decode(rec.Body); err != nil {
		t.Errorf("body is not a PNG: %v", err)
	}
}

func TestInlinePasses(t *testing.T) {
	router := newTestRouter(testConfig())
	doc := scenarioDoc(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/pick/hitmap?width=400&height=300", bytes.NewReader(doc)))
	if rec.Code != http.StatusOK {
		t.Fatalf("inline hitmap status %d: %s", rec.Code, rec.Body.String())
	}
	var hm HitmapResult
	if err := json.Unmarshal(rec.Body.Bytes(), &hm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hm.Elements) != 2 {
		t.Errorf("inline hitmap elements = %v", hm.Elements)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/pick/bboxes?width=400&height=300", bytes.NewReader(doc)))
	if rec.Code != http.StatusOK {
		t.Fatalf("inline bbox status %d: %s", rec.Code, rec.Body.String())
	}
	var bb bbox.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &bb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bb.Boxes) != 2 {
		t.Errorf("inline bbox entries = %v", bb.Boxes)
	}
}

func TestPlaygroundScene(t *testing.T) {
	router := newTestRouter(testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scenes/"+PlaygroundSceneID+"/bboxes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("playground status %d: %s", rec.Code, rec.Body.String())
	}
	var bb bbox.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &bb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bb.Boxes) < 15 {
		t.Errorf("playground produced only %d boxes", len(bb.Boxes))
	}
	// default output size applies when no params are given
	if bb.Meta.OutputWidth != 800 || bb.Meta.OutputHeight != 600 {
		t.Errorf("default meta = %+v", bb.Meta)
	}
}

func TestErrorStatuses(t *testing.T) {
	router := newTestRouter(testConfig())

	tests := []struct {
		name   string
		method string
		url    string
		body   []byte
		status int
	}{
		{"unknown scene", "GET", "/scenes/scene_nope/hitmap", nil, http.StatusNotFound},
		{"bad width", "GET", "/scenes/" + PlaygroundSceneID + "/hitmap?width=abc", nil, http.StatusBadRequest},
		{"zero width", "GET", "/scenes/" + PlaygroundSceneID + "/hitmap?width=0", nil, http.StatusBadRequest},
		{"oversize width", "GET", "/scenes/" + PlaygroundSceneID + "/hitmap?width=99999", nil, http.StatusBadRequest},
		{"invalid upload", "POST", "/scenes", []byte("not a scene"), http.StatusBadRequest},
		{"empty panels", "POST", "/scenes", []byte(`{"panels":[]}`), http.StatusBadRequest},
		{"invalid inline", "POST", "/pick/bboxes", []byte("nope"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != nil {
				req = httptest.NewRequest(tt.method, tt.url, bytes.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.url, nil)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

// TestConfigDPIDefault: a document that omits its density inherits the
// configured DPI, and the passes report it back in meta.
func TestConfigDPIDefault(t *testing.T) {
	cfg := testConfig()
	cfg.DPI = 50
	router := newTestRouter(cfg)

	doc := []byte(`{
		"panels": [{
			"rect": {"x":0,"y":0,"width":400,"height":300},
			"primitives": [{
				"category": "line", "visible": true,
				"style": {"stroke": "tab:blue", "strokeWidth": 2},
				"xy": [{"x":50,"y":50},{"x":350,"y":250}]
			}]
		}]
	}`)
	id := uploadScene(t, router, doc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/scenes/"+id+"/bboxes?width=400&height=300", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("bbox status %d: %s", rec.Code, rec.Body.String())
	}
	var bb bbox.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &bb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bb.Meta.DPI != 50 {
		t.Errorf("meta DPI = %v, want the configured 50", bb.Meta.DPI)
	}
}

func TestSceneEviction(t *testing.T) {
	cfg := testConfig()
	cfg.MaxScenes = 2
	svc := NewService(cfg, render.NewRaster())

	doc := scenarioDoc(t)
	first, err := svc.AddScene(doc)
	if err != nil {
		t.Fatalf("AddScene: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.AddScene(doc); err != nil {
			t.Fatalf("AddScene: %v", err)
		}
	}

	if _, err := svc.Hitmap(first, 100, 75); err == nil {
		t.Error("oldest scene should have been evicted")
	}
	// the playground is pinned and survives any amount of uploads
	if _, err := svc.BBoxes(PlaygroundSceneID, 100, 75); err != nil {
		t.Errorf("playground evicted: %v", err)
	}
}
