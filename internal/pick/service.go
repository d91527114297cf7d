// Package pick exposes the two extraction passes to the surrounding web
// layer: GetHitmap and GetBBoxes over HTTP/JSON, plus a live websocket
// picking session. It also owns the per-scene serialization the hitmap
// pass's in-place style mutation requires.
package pick

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/plotpick/plotpick/internal/bbox"
	"github.com/plotpick/plotpick/internal/config"
	"github.com/plotpick/plotpick/internal/hitmap"
	"github.com/plotpick/plotpick/internal/render"
	"github.com/plotpick/plotpick/internal/scene"
	"github.com/plotpick/plotpick/internal/typeid"
)

// PlaygroundSceneID is always present: the built-in sample scene, so a
// frontend can pick against a known figure without uploading anything.
const PlaygroundSceneID = "scene_playground"

var ErrSceneNotFound = errors.New("pick: scene not found")

// Service runs extraction passes against stored scene snapshots. Each
// stored scene carries its own mutex: a hitmap pass mutates primitive styles
// in place, so two passes against the same scene must never interleave.
type Service struct {
	cfg      *config.Config
	renderer render.Renderer

	mu     sync.Mutex
	scenes map[string]*storedScene
	order  []string // insertion order, oldest first, for eviction
}

type storedScene struct {
	mu    sync.Mutex
	scene *scene.Scene
}

func NewService(cfg *config.Config, r render.Renderer) *Service {
	s := &Service{
		cfg:      cfg,
		renderer: r,
		scenes:   make(map[string]*storedScene),
	}
	s.scenes[PlaygroundSceneID] = &storedScene{scene: scene.NewSampleScene()}
	return s
}

// AddScene parses and stores an uploaded scene document, evicting the oldest
// uploads above the configured cap. The playground scene is never evicted.
func (s *Service) AddScene(data []byte) (string, error) {
	sc, err := scene.Parse(data, s.cfg.DPI)
	if err != nil {
		return "", err
	}

	id := typeid.NewSceneID()
	sc.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenes[id] = &storedScene{scene: sc}
	s.order = append(s.order, id)
	for s.cfg.MaxScenes > 0 && len(s.order) > s.cfg.MaxScenes {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.scenes, oldest)
	}
	return id, nil
}

func (s *Service) get(id string) (*storedScene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSceneNotFound, id)
	}
	return st, nil
}

// HitmapResult is the GetHitmap response body. Image is a PNG; JSON encodes
// it as base64. PNG is mandatory here: a lossy codec would corrupt the ID
// colors.
type HitmapResult struct {
	Image    []byte                  `json:"image"`
	Elements map[string]hitmap.Entry `json:"elements"`
	Dropped  int                     `json:"dropped,omitempty"`
	Meta     bbox.Meta               `json:"meta"`
}

// Hitmap runs a hitmap pass against a stored scene.
func (s *Service) Hitmap(id string, width, height int) (*HitmapResult, error) {
	st, err := s.get(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.hitmapLocked(st.scene, width, height)
}

// HitmapInline runs a hitmap pass against a request-local scene document.
func (s *Service) HitmapInline(data []byte, width, height int) (*HitmapResult, error) {
	sc, err := scene.Parse(data, s.cfg.DPI)
	if err != nil {
		return nil, err
	}
	return s.hitmapLocked(sc, width, height)
}

func (s *Service) hitmapLocked(sc *scene.Scene, width, height int) (*HitmapResult, error) {
	img, reg, err := hitmap.Run(sc, s.renderer, hitmap.Options{
		Width:     width,
		Height:    height,
		PadInches: s.cfg.PadInches,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("pick: encode hitmap png: %w", err)
	}

	return &HitmapResult{
		Image:    buf.Bytes(),
		Elements: reg.Elements,
		Dropped:  reg.Dropped,
		Meta:     bbox.Meta{OutputWidth: width, OutputHeight: height, DPI: sc.DPI},
	}, nil
}

// HitmapRaw runs a hitmap pass and returns the undecoded raster and
// registry; the live picking session keeps these in memory and resolves
// pointer positions against them.
func (s *Service) HitmapRaw(id string, width, height int) (*image.NRGBA, *hitmap.Registry, error) {
	st, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return hitmap.Run(st.scene, s.renderer, hitmap.Options{
		Width:     width,
		Height:    height,
		PadInches: s.cfg.PadInches,
	})
}

// BBoxes runs a bbox pass against a stored scene.
func (s *Service) BBoxes(id string, width, height int) (*bbox.Result, error) {
	st, err := s.get(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return s.bboxLocked(st.scene, width, height)
}

// BBoxesInline runs a bbox pass against a request-local scene document.
func (s *Service) BBoxesInline(data []byte, width, height int) (*bbox.Result, error) {
	sc, err := scene.Parse(data, s.cfg.DPI)
	if err != nil {
		return nil, err
	}
	return s.bboxLocked(sc, width, height)
}

func (s *Service) bboxLocked(sc *scene.Scene, width, height int) (*bbox.Result, error) {
	return bbox.Extract(sc, s.renderer, bbox.Options{
		Width:            width,
		Height:           height,
		PadInches:        s.cfg.PadInches,
		MaxSampledPoints: s.cfg.MaxSampledPoints,
	})
}
