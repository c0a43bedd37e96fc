package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"mockup-machine/abuse"
	"mockup-machine/genai"
	"mockup-machine/safeurl"
)

func (h *handler) checkSignup(w http.ResponseWriter, r *http.Request) {
	var up abuse.Signup
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if up.IP == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			up.IP = host
		}
	}
	if up.UserAgent == "" {
		up.UserAgent = r.UserAgent()
	}

	res := h.Scorer.Score(up)
	if res.Verdict != abuse.VerdictAllow {
		h.Log.Info("signup flagged",
			zap.String("verdict", string(res.Verdict)),
			zap.Int("score", res.Score),
			zap.Strings("reasons", res.Reasons))
	}
	writeJSON(w, http.StatusOK, res)
}

type referenceCheckRequest struct {
	URL string `json:"url"`
}

type referenceCheckResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// checkReference validates a reference-image URL before the UI attaches it
// to a preset, so the backend never fetches an internal address later.
func (h *handler) checkReference(w http.ResponseWriter, r *http.Request) {
	var req referenceCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := safeurl.ResolveValidated(r.Context(), req.URL); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, referenceCheckResponse{OK: false, Reason: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, referenceCheckResponse{OK: true})
}

type keyRequest struct {
	RequestKey string `json:"requestKey"`
	UserKey    string `json:"userKey"`
}

type keyResponse struct {
	Source      genai.KeySource `json:"source"`
	Fingerprint string          `json:"fingerprint"`
}

// resolveKey tells the UI which key tier a generation request would bill,
// without ever echoing the key itself.
func (h *handler) resolveKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	key, src, err := h.Keys.Resolve(req.RequestKey, req.UserKey)
	switch {
	case errors.Is(err, genai.ErrNoKey):
		http.Error(w, "no API key available", http.StatusNotFound)
		return
	case errors.Is(err, genai.ErrInvalidKey):
		http.Error(w, "API key has invalid format", http.StatusUnprocessableEntity)
		return
	case err != nil:
		http.Error(w, "key resolution failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, keyResponse{Source: src, Fingerprint: genai.Fingerprint(key)})
}
