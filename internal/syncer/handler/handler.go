// Package handler exposes the sync service's HTTP surface: a manual sync
// trigger and the audit-log history listing.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopchat/catalog/internal/audit"
	"github.com/shopchat/catalog/internal/syncer"
	"github.com/shopchat/catalog/pkg/errors"
	"github.com/shopchat/catalog/pkg/logger"
)

// SyncRunner executes one catalog sync.
type SyncRunner interface {
	Run(ctx context.Context, source string) (syncer.Result, error)
}

// HistoryReader lists recent sync runs from the audit log.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Run, error)
}

// Handler serves the sync service endpoints.
type Handler struct {
	runner  SyncRunner
	history HistoryReader
	logger  *slog.Logger
}

// New creates a Handler. history may be nil when the audit log is not
// configured.
func New(runner SyncRunner, history HistoryReader) *Handler {
	return &Handler{
		runner:  runner,
		history: history,
		logger:  slog.Default().With("component", "sync-handler"),
	}
}

// Trigger runs a manual sync and responds with the run result. The sync
// executes within the request; clients should allow for the feed fetch
// timeout plus store write time.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	log := logger.FromContext(ctx)

	result, err := h.runner.Run(ctx, syncer.SourceManual)
	if err != nil {
		log.Error("manual sync failed", "error", err)
		h.writeJSON(w, errors.HTTPStatusCode(err), map[string]any{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// History lists recent sync runs, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusServiceUnavailable, "audit log is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > 100 {
			parsed = 100
		}
		limit = parsed
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("audit history query failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load sync history")
		return
	}

	out := make([]runView, 0, len(runs))
	for _, run := range runs {
		out = append(out, runView{
			StartedAt: run.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			Duration:  run.Duration.Seconds(),
			Products:  run.Products,
			Success:   run.Success,
			Source:    run.Source,
			FeedShape: run.FeedShape,
			Error:     run.Error,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total": len(out),
		"runs":  out,
	})
}

type runView struct {
	StartedAt string  `json:"started_at"`
	Duration  float64 `json:"duration_seconds"`
	Products  int     `json:"products"`
	Success   bool    `json:"success"`
	Source    string  `json:"source"`
	FeedShape string  `json:"feed_shape,omitempty"`
	Error     string  `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
