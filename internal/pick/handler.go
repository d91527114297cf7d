package pick

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/plotpick/plotpick/internal/config"
	"github.com/plotpick/plotpick/internal/scene"
)

const maxSceneUpload = 16 << 20 // 16MB

type Handler struct {
	svc *Service
	cfg *config.Config
}

func NewHandler(svc *Service, cfg *config.Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// UploadScene stores a scene document and returns its ID.
func (h *Handler) UploadScene(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}

	id, err := h.svc.AddScene(data)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sceneId": id})
}

// GetHitmap runs the hitmap pass. format=png streams the raw raster;
// the default JSON form carries the PNG base64-encoded next to the element
// registry.
func (h *Handler) GetHitmap(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	width, height, err := h.outputSize(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.svc.Hitmap(sceneID, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "png" {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Image)))
		w.Write(res.Image)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetBBoxes runs the bbox pass.
func (h *Handler) GetBBoxes(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	width, height, err := h.outputSize(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.svc.BBoxes(sceneID, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PickHitmap is the stateless variant: the scene document travels in the
// request body instead of being uploaded first.
func (h *Handler) PickHitmap(w http.ResponseWriter, r *http.Request) {
	width, height, err := h.outputSize(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}

	res, err := h.svc.HitmapInline(data, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PickBBoxes is the stateless bbox variant.
func (h *Handler) PickBBoxes(w http.ResponseWriter, r *http.Request) {
	width, height, err := h.outputSize(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}

	res, err := h.svc.BBoxesInline(data, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// outputSize parses width/height query params with defaults and a safety
// cap on raster size.
func (h *Handler) outputSize(r *http.Request) (int, int, error) {
	width, err := sizeParam(r, "width", 800, h.cfg.MaxOutputDim)
	if err != nil {
		return 0, 0, err
	}
	height, err := sizeParam(r, "height", 600, h.cfg.MaxOutputDim)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func sizeParam(r *http.Request, name string, def, maxDim int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New("invalid " + name)
	}
	if maxDim > 0 && v > maxDim {
		return 0, errors.New(name + " exceeds limit")
	}
	return v, nil
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSceneNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scene not found"})
	case errors.Is(err, scene.ErrInvalidScene):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("pick service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
