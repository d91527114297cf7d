package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/plotpick/plotpick/internal/config"
	mw "github.com/plotpick/plotpick/internal/middleware"
	"github.com/plotpick/plotpick/internal/pick"
	"github.com/plotpick/plotpick/internal/render"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	svc := pick.NewService(cfg, render.NewRaster())
	handler := pick.NewHandler(svc, cfg)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Scene snapshots
	r.HandleFunc("/scenes", handler.UploadScene).Methods("POST", "OPTIONS")
	r.HandleFunc("/scenes/{sceneId}/hitmap", handler.GetHitmap).Methods("GET")
	r.HandleFunc("/scenes/{sceneId}/bboxes", handler.GetBBoxes).Methods("GET")

	// Stateless one-shot variants
	r.HandleFunc("/pick/hitmap", handler.PickHitmap).Methods("POST", "OPTIONS")
	r.HandleFunc("/pick/bboxes", handler.PickBBoxes).Methods("POST", "OPTIONS")

	// Live picking session
	r.HandleFunc("/ws/scenes/{sceneId}/pick", handler.LiveSession)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
