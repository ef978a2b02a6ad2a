// Package assistant ties the read path together: intent classification
// selects a retrieval strategy (word index, category or brand index,
// discount listing, random sample, or stats only), and the outcome is
// rendered into a context block for the downstream completion service.
package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/intent"
	"github.com/shopchat/catalog/internal/search"
	"github.com/shopchat/catalog/pkg/metrics"
)

// CatalogReader is the store surface the assistant reads besides the search
// engine.
type CatalogReader interface {
	Metadata(ctx context.Context) (catalog.Metadata, error)
	Categories(ctx context.Context) ([]catalog.NameCount, error)
	Brands(ctx context.Context) ([]catalog.NameCount, error)
	RandomProducts(ctx context.Context, limit int) ([]catalog.Product, error)
	DiscountedProducts(ctx context.Context, limit int) ([]catalog.Product, error)
}

// Response is the retrieval outcome for one user message.
type Response struct {
	Intent   intent.Intent           `json:"intent"`
	Terms    []string                `json:"terms"`
	Products []catalog.ScoredProduct `json:"products"`
	Context  string                  `json:"context"`
}

// Assistant orchestrates intent-driven retrieval.
type Assistant struct {
	engine     *search.Engine
	reader     CatalogReader
	classifier *intent.Classifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates an Assistant. metrics may be nil.
func New(engine *search.Engine, reader CatalogReader, classifier *intent.Classifier, m *metrics.Metrics) *Assistant {
	return &Assistant{
		engine:     engine,
		reader:     reader,
		classifier: classifier,
		metrics:    m,
		logger:     slog.Default().With("component", "assistant"),
	}
}

// Answer runs the read path for one message: classify, retrieve, render.
// Retrieval failures degrade to an empty product list; the rendered block
// then carries the explicit no-results notice instead of fabricated data.
func (a *Assistant) Answer(ctx context.Context, message string, limit int) Response {
	in := a.classifier.Classify(message)
	if a.metrics != nil {
		a.metrics.IntentTotal.WithLabelValues(string(in)).Inc()
	}

	meta, err := a.reader.Metadata(ctx)
	if err != nil {
		a.logger.Warn("metadata unavailable", "error", err)
	}

	input := RenderInput{Query: message, Metadata: meta}
	resp := Response{Intent: in}

	switch in {
	case intent.IntentGreeting, intent.IntentCount:
		// Stats only; no product retrieval.
	case intent.IntentDiscount:
		products, derr := a.reader.DiscountedProducts(ctx, limit)
		if derr != nil {
			a.logger.Warn("discount listing unavailable", "error", derr)
		}
		resp.Products = unscored(products)
	case intent.IntentRecommendation, intent.IntentGift:
		products, rerr := a.reader.RandomProducts(ctx, limit)
		if rerr != nil {
			a.logger.Warn("random sampling unavailable", "error", rerr)
		}
		resp.Products = unscored(products)
	case intent.IntentCategory:
		categories, cerr := a.reader.Categories(ctx)
		if cerr != nil {
			a.logger.Warn("category listing unavailable", "error", cerr)
		}
		input.Categories = categories
		resp.Terms, resp.Products = a.searchWithFallback(ctx, message, limit)
	default:
		resp.Terms, resp.Products = a.searchWithFallback(ctx, message, limit)
	}

	input.Products = resp.Products
	resp.Context = RenderContext(in, input)
	if a.metrics != nil {
		a.metrics.ContextBlockBytes.Observe(float64(len(resp.Context)))
	}
	a.logger.Info("message answered",
		"intent", in,
		"products", len(resp.Products),
		"context_bytes", len(resp.Context),
	)
	return resp
}

// searchWithFallback runs the word-index search; when it comes back empty it
// widens the token list with synonyms and retries, then falls back to
// single-token probes.
func (a *Assistant) searchWithFallback(ctx context.Context, message string, limit int) ([]string, []catalog.ScoredProduct) {
	result := a.engine.Search(ctx, message, limit)
	if len(result.Products) > 0 || result.Degraded {
		return result.Terms, result.Products
	}

	expanded := a.classifier.Expand(intent.StripStopWords(result.Terms))
	if len(expanded) > len(result.Terms) {
		retry := a.engine.Search(ctx, strings.Join(expanded, " "), limit)
		if len(retry.Products) > 0 {
			return result.Terms, retry.Products
		}
	}
	for _, token := range expanded {
		probe := a.engine.Search(ctx, token, limit)
		if len(probe.Products) > 0 {
			return result.Terms, probe.Products
		}
	}
	return result.Terms, nil
}

func unscored(products []catalog.Product) []catalog.ScoredProduct {
	out := make([]catalog.ScoredProduct, 0, len(products))
	for _, p := range products {
		out = append(out, catalog.ScoredProduct{Product: p})
	}
	return out
}
