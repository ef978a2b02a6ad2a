// Package handler exposes the assistant service's HTTP surface: the query
// endpoint that produces a context block for the completion service, and a
// debug endpoint for inspecting catalog state.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopchat/catalog/internal/assistant"
	"github.com/shopchat/catalog/internal/search"
	"github.com/shopchat/catalog/pkg/logger"
)

// Answerer runs the full read path for one user message.
type Answerer interface {
	Answer(ctx context.Context, message string, limit int) assistant.Response
}

// Searcher executes raw word-index queries, bypassing intent classification.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) search.Result
}

// Handler serves the assistant endpoints.
type Handler struct {
	answerer     Answerer
	searcher     Searcher
	reader       assistant.CatalogReader
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler.
func New(answerer Answerer, searcher Searcher, reader assistant.CatalogReader, defaultLimit, maxResults int) *Handler {
	return &Handler{
		answerer:     answerer,
		searcher:     searcher,
		reader:       reader,
		defaultLimit: defaultLimit,
		maxResults:   maxResults,
		logger:       slog.Default().With("component", "assistant-handler"),
	}
}

type queryRequest struct {
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
}

// Query classifies the message, retrieves matching products, and responds
// with the rendered context block plus the structured retrieval outcome.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "request body must be JSON with a 'message' field")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}
	limit := h.clampLimit(req.Limit)

	resp := h.answerer.Answer(ctx, req.Message, limit)

	log.Info("query answered",
		"intent", resp.Intent,
		"terms", len(resp.Terms),
		"products", len(resp.Products),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Debug inspects catalog state without the intent layer. The type parameter
// selects the view: search (default), stats, categories, brands, or
// discounts.
func (h *Handler) Debug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	limit := h.clampLimit(0)
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = h.clampLimit(parsed)
	}

	switch r.URL.Query().Get("type") {
	case "", "search":
		query := r.URL.Query().Get("q")
		if query == "" {
			h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
			return
		}
		h.writeJSON(w, http.StatusOK, h.searcher.Search(ctx, query, limit))

	case "stats":
		meta, err := h.reader.Metadata(ctx)
		if err != nil {
			h.storeError(w, ctx, "stats", err)
			return
		}
		categories, err := h.reader.Categories(ctx)
		if err != nil {
			h.storeError(w, ctx, "stats", err)
			return
		}
		brands, err := h.reader.Brands(ctx)
		if err != nil {
			h.storeError(w, ctx, "stats", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"total_products": meta.Count,
			"last_update":    meta.LastUpdate,
			"categories":     len(categories),
			"brands":         len(brands),
		})

	case "categories":
		categories, err := h.reader.Categories(ctx)
		if err != nil {
			h.storeError(w, ctx, "categories", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"total":      len(categories),
			"categories": categories,
		})

	case "brands":
		brands, err := h.reader.Brands(ctx)
		if err != nil {
			h.storeError(w, ctx, "brands", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"total":  len(brands),
			"brands": brands,
		})

	case "discounts":
		products, err := h.reader.DiscountedProducts(ctx, limit)
		if err != nil {
			h.storeError(w, ctx, "discounts", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"total":    len(products),
			"products": products,
		})

	default:
		h.writeError(w, http.StatusBadRequest, "type must be one of search, stats, categories, brands, discounts")
	}
}

func (h *Handler) clampLimit(limit int) int {
	if limit < 1 {
		return h.defaultLimit
	}
	if limit > h.maxResults {
		return h.maxResults
	}
	return limit
}

func (h *Handler) storeError(w http.ResponseWriter, ctx context.Context, view string, err error) {
	logger.FromContext(ctx).Error("catalog read failed", "view", view, "error", err)
	h.writeError(w, http.StatusServiceUnavailable, "catalog store unavailable")
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
