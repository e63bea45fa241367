package status

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"touchkeys/internal/fire"
)

// Handler exposes the status store over HTTP using go-chi.
type Handler struct {
	store *Store
	log   *slog.Logger
}

// NewHandler returns a Handler reading from store.
func NewHandler(store *Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts the status endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Route("/status", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Get("/grid", h.GetGrid)
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// GetStatus handles GET /status with the latest snapshot as JSON.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.log.Error("encode status failed", slog.String("error", err.Error()))
	}
}

// GetGrid handles GET /status/grid with the fire message for the last cycle.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(fire.Encode(snap.Keys))
	w.Write([]byte("\n"))
}
