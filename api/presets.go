package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mockup-machine/event"
	"mockup-machine/preset"
)

func (h *handler) getPresets(w http.ResponseWriter, r *http.Request) {
	list := h.Catalog.All(r.Context())

	if typ := preset.Type(r.URL.Query().Get("type")); typ != "" {
		if !preset.ValidType(typ) {
			http.Error(w, "unknown preset type", http.StatusBadRequest)
			return
		}
		filtered := make([]preset.Preset, 0, len(list))
		for _, p := range list {
			if p.Type == typ {
				filtered = append(filtered, p)
			}
		}
		list = filtered
	}

	writeJSON(w, http.StatusOK, map[string][]preset.Preset{"presets": list})
}

func (h *handler) getPreset(w http.ResponseWriter, r *http.Request) {
	typ := preset.Type(chi.URLParam(r, "type"))
	id := chi.URLParam(r, "id")
	if !preset.ValidType(typ) {
		http.Error(w, "unknown preset type", http.StatusBadRequest)
		return
	}

	p, ok := h.Catalog.ByIDFresh(r.Context(), typ, id)
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) refreshPresets(w http.ResponseWriter, r *http.Request) {
	list := h.Catalog.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string][]preset.Preset{"presets": list})
}

// invalidatePresets is called by the UI after any preset create/edit/delete
// and after closing a modal that may have mutated the backing store. The
// body may carry the mutated records; they are not ingested, only the
// invalidation matters.
func (h *handler) invalidatePresets(w http.ResponseWriter, r *http.Request) {
	var mutated []preset.Preset
	// Body is optional; decode errors are deliberately ignored since the
	// payload is advisory.
	json.NewDecoder(r.Body).Decode(&mutated)

	h.Catalog.NoteExternalUpdate(mutated)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) usePreset(w http.ResponseWriter, r *http.Request) {
	typ := preset.Type(chi.URLParam(r, "type"))
	id := chi.URLParam(r, "id")
	if !preset.ValidType(typ) {
		http.Error(w, "unknown preset type", http.StatusBadRequest)
		return
	}

	p, ok := h.Catalog.ByIDFresh(r.Context(), typ, id)
	if !ok {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	if err := h.Recents.MarkUsed(p); err != nil {
		http.Error(w, "failed to update recently used", http.StatusInternalServerError)
		return
	}
	h.Hub.Publish(event.Event{Kind: event.KindUsed, Type: string(typ), ID: id})

	writeJSON(w, http.StatusOK, map[string][]string{"recentlyUsed": h.Recents.Keys()})
}

func (h *handler) getRecent(w http.ResponseWriter, r *http.Request) {
	resolved := h.Recents.Resolve(h.Catalog.AllCached())
	if resolved == nil {
		resolved = []preset.Preset{}
	}
	writeJSON(w, http.StatusOK, map[string][]preset.Preset{"presets": resolved})
}
