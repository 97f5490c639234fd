package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/NoaVaturi/JobBot/internal/events"
	"github.com/NoaVaturi/JobBot/internal/pipeline"
	"github.com/NoaVaturi/JobBot/internal/store"
)

type webhookHandler struct {
	d Deps
}

// trigger accepts a run and returns immediately; the run proceeds in the
// background. 409 when a run is already active.
func (h webhookHandler) trigger(w http.ResponseWriter, r *http.Request) {
	if h.d.WebhookSecret != "" {
		got := r.Header.Get("X-Webhook-Secret")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.d.WebhookSecret)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthorized"})
			return
		}
	}
	// detach from the request context; the run outlives this response
	if !h.d.Trigger.RunAsync(context.WithoutCancel(r.Context())) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "busy"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type searchHandler struct {
	d Deps
}

// search runs the pipeline synchronously and returns the full result.
func (h searchHandler) search(w http.ResponseWriter, r *http.Request) {
	res := h.d.Trigger.Run(r.Context())
	switch res.State {
	case pipeline.StateBusy:
		writeJSON(w, http.StatusConflict, map[string]string{"status": "busy"})
	case pipeline.StateFailed:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "failed",
			"error":  res.Error,
			"result": res,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"result": res,
		})
	}
}

type statsHandler struct {
	seen *store.SeenStore
}

func (h statsHandler) stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.seen.Count(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	today, err := h.seen.CountSince(r.Context(), midnight)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_seen": total,
		"seen_today": today,
	})
}

type eventsHandler struct {
	hub *events.Hub
}

func (h eventsHandler) serveSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	fmt.Fprintf(w, "event: message\ndata: %s\n\n", events.Make("", "ping", nil))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
