package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"mockup-machine/abuse"
	"mockup-machine/event"
	"mockup-machine/genai"
	"mockup-machine/preset"
)

// Deps collects everything the handlers need. Built once in main.
type Deps struct {
	Catalog *preset.Catalog
	Recents *preset.Recents
	Scorer  *abuse.Scorer
	Keys    *genai.Resolver
	Hub     *event.Hub
	Log     *zap.Logger
}

func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{Deps: d}

	// Preset catalog
	r.Get("/api/presets", h.getPresets)
	r.Get("/api/presets/recent", h.getRecent)
	r.Get("/api/presets/{type}/{id}", h.getPreset)
	r.Post("/api/presets/refresh", h.refreshPresets)
	r.Post("/api/presets/invalidate", h.invalidatePresets)
	r.Post("/api/presets/{type}/{id}/use", h.usePreset)

	// Signup and reference-image checks
	r.Post("/api/signup/check", h.checkSignup)
	r.Post("/api/reference/check", h.checkReference)

	// Generative-provider key resolution
	r.Post("/api/genai/key", h.resolveKey)

	// Catalog-change event stream
	r.Get("/api/events/ws", h.handleEvents)

	return r
}

type handler struct {
	Deps
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
