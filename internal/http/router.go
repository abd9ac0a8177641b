// Package httpapi exposes the operations surface: health, metrics and
// an import trigger. Member data itself is managed through the import
// pipeline and the CLI, not over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/internal/importer"
)

// ImportRunner starts one reconciliation run.
type ImportRunner interface {
	Run(ctx context.Context, personsPath, groupsPath string, progress importer.ProgressFunc) error
}

// Handler serves the operations endpoints.
type Handler struct {
	runner ImportRunner
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewHandler builds the operations handler.
func NewHandler(runner ImportRunner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, logger: logger}
}

// NewRouter wires the operations endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/import", h.handleImport)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type importRequest struct {
	PersonsPath string `json:"persons_path"`
	GroupsPath  string `json:"groups_path"`
}

// handleImport runs a reconciliation synchronously. Only one run may
// be active at a time; the pipeline rebuilds the whole store.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PersonsPath == "" || req.GroupsPath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "persons_path and groups_path are required"})
		return
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "an import is already running"})
		return
	}
	h.running = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	var lines []string
	err := h.runner.Run(r.Context(), req.PersonsPath, req.GroupsPath, func(line string) {
		lines = append(lines, line)
	})
	switch {
	case errors.Is(err, importer.ErrCancelled):
		writeJSON(w, http.StatusConflict, map[string]any{"status": "cancelled", "log": lines})
	case err != nil:
		h.logger.Error("import run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "failed", "error": err.Error(), "log": lines})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "log": lines})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
