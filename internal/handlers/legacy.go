package handlers

import (
	"io"
	"net/http"

	"github.com/arko-chat/hostbridge/internal/ws"
)

// HandleLegacyQueue drains the envelopes queued for a polling page.
func (h *Handler) HandleLegacyQueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.WriteString(w, h.legacy.Queue.Fetch()); err != nil {
		h.logger.Warn("legacy queue write failed", "err", err)
	}
}

// HandleLegacyDeliver accepts one envelope posted by a polling page.
func (h *Handler) HandleLegacyDeliver(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, ws.MaxMessageSize+1))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if len(body) > ws.MaxMessageSize {
		http.Error(w, "envelope too large", http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty envelope", http.StatusBadRequest)
		return
	}

	h.legacy.Bridge.Deliver(string(body))
	w.WriteHeader(http.StatusAccepted)
}

// HandleHealth reports whether the polling binding is up and ready, and
// the number of live websocket bridges.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"legacy":   h.legacy != nil,
		"sessions": h.hub.Count(),
	}
	if h.legacy != nil {
		ready := false
		select {
		case <-h.legacy.Bridge.Ready():
			ready = true
		default:
		}
		body["ready"] = ready
		body["queued"] = h.legacy.Queue.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, body)
}
