// Package server exposes the trigger surface over HTTP: webhook and sync
// search triggers, store stats, health, and an SSE event stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NoaVaturi/JobBot/internal/events"
	"github.com/NoaVaturi/JobBot/internal/pipeline"
	"github.com/NoaVaturi/JobBot/internal/store"
)

// Trigger is what the handlers need from the pipeline.
type Trigger interface {
	Run(ctx context.Context) pipeline.RunResult
	RunAsync(ctx context.Context) bool
}

type Deps struct {
	Trigger Trigger
	Seen    *store.SeenStore
	Hub     *events.Hub
	// WebhookSecret guards POST /webhook/trigger; empty disables the check.
	WebhookSecret string
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	wh := webhookHandler{d: d}
	mux.HandleFunc("/webhook/trigger", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: wh.trigger,
	}))

	sh := searchHandler{d: d}
	mux.HandleFunc("/search", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.search,
	}))

	st := statsHandler{seen: d.Seen}
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: st.stats,
	}))

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		},
	}))

	eh := eventsHandler{hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.serveSSE,
	}))

	return mux
}

// New builds the http.Server with the standard middleware chain.
func New(port int, d Deps) *http.Server {
	handler := Chain(NewMux(d), RequestID, AccessLog, Recover)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
