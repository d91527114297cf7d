package pick

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/plotpick/plotpick/internal/hitmap"
	"github.com/plotpick/plotpick/internal/scene"
)

const (
	liveWriteWait  = 10 * time.Second
	liveMaxMsgSize = 4 * 1024
)

// pointerMsg is one hover/click position from the client, in output-image
// pixel coordinates of the session's raster.
type pointerMsg struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// pickMsg is the resolution of one pointer position. Key is empty over the
// background.
type pickMsg struct {
	Key        string         `json:"key"`
	Label      string         `json:"label,omitempty"`
	Category   scene.Category `json:"category,omitempty"`
	PanelIndex int            `json:"panelIndex"`
}

// LiveSession upgrades to a websocket and answers pointer positions with
// element keys. The hitmap pass runs once at session start; every pointer
// message after that is a pixel lookup against the retained raster, so
// hover-speed traffic never re-renders the scene.
func (h *Handler) LiveSession(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["sceneId"]
	width, height, err := h.outputSize(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, reg, err := h.svc.HitmapRaw(sceneID, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: strings.Split(h.cfg.AllowedOrigins, ","),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := "live-" + uuid.New().String()[:8]
	slog.Info("live picking session started", "scene", sceneID, "client", clientID, "elements", len(reg.Elements))

	ctx := r.Context()
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(liveMaxMsgSize)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("live session read", "error", err, "client", clientID)
			return
		}

		var ptr pointerMsg
		if err := json.Unmarshal(data, &ptr); err != nil {
			slog.Warn("invalid pointer message", "error", err, "client", clientID)
			continue
		}

		var reply pickMsg
		reply.PanelIndex = -1
		if key, e, ok := hitmap.PickPixel(img, reg, ptr.X, ptr.Y); ok {
			reply = pickMsg{Key: key, Label: e.Label, Category: e.Category, PanelIndex: e.PanelIndex}
		}

		out, err := json.Marshal(reply)
		if err != nil {
			slog.Error("marshal pick reply", "error", err)
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, liveWriteWait)
		err = conn.Write(writeCtx, websocket.MessageText, out)
		cancel()
		if err != nil {
			slog.Debug("live session write", "error", err, "client", clientID)
			return
		}
	}
}
