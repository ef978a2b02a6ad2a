// Package search implements query-time retrieval: it matches normalized
// query tokens against the persisted word index with bidirectional substring
// containment and ranks products by accumulated match score.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/textnorm"
	"github.com/shopchat/catalog/pkg/metrics"
)

const (
	// minQueryTokenLen is deliberately laxer than the indexing threshold:
	// a two-letter query term can still match a longer indexed token.
	minQueryTokenLen = 2

	exactMatchScore   = 10
	partialMatchScore = 5
)

// Reader is the catalog read surface the engine needs.
type Reader interface {
	WordIndex(ctx context.Context) (map[string][]string, error)
	CategoryIndex(ctx context.Context) (map[string][]string, error)
	BrandIndex(ctx context.Context) (map[string][]string, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
}

// Result is a ranked retrieval outcome. Terms records the token list that
// was matched, for observability and testing.
type Result struct {
	Query    string                  `json:"query"`
	Terms    []string                `json:"terms"`
	Total    int                     `json:"total"`
	Products []catalog.ScoredProduct `json:"products"`
	Degraded bool                    `json:"degraded,omitempty"`
}

// Engine executes queries against the catalog store.
type Engine struct {
	reader  Reader
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an Engine. metrics may be nil.
func New(reader Reader, m *metrics.Metrics) *Engine {
	return &Engine{
		reader:  reader,
		metrics: m,
		logger:  slog.Default().With("component", "search-engine"),
	}
}

// Search ranks products for a free-text query and returns at most limit
// results. A query with no usable tokens or no matches yields an empty
// result. Store failures degrade to an empty result as well: "no match" is
// the safe answer for an advisory consumer, and the condition is logged.
func (e *Engine) Search(ctx context.Context, query string, limit int) Result {
	start := time.Now()
	result := Result{Query: query, Terms: textnorm.Tokens(query, minQueryTokenLen, 0)}
	if len(result.Terms) == 0 {
		e.observe(result, start)
		return result
	}

	wordIndex, err := e.reader.WordIndex(ctx)
	if err != nil {
		e.logger.Warn("word index unavailable, degrading to empty result", "query", query, "error", err)
		result.Degraded = true
		e.observe(result, start)
		return result
	}

	scores := scoreTokens(result.Terms, wordIndex)
	ranked := rankIDs(scores)
	result.Total = len(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	products, err := e.reader.ProductsByIDs(ctx, ranked)
	if err != nil {
		e.logger.Warn("product resolution failed, degrading to empty result", "query", query, "error", err)
		result.Total = 0
		result.Degraded = true
		e.observe(result, start)
		return result
	}
	result.Products = make([]catalog.ScoredProduct, 0, len(products))
	for _, p := range products {
		result.Products = append(result.Products, catalog.ScoredProduct{Product: p, Score: scores[p.ID]})
	}
	e.observe(result, start)
	return result
}

// ByCategory returns products whose normalized category contains, or is
// contained in, the given category text.
func (e *Engine) ByCategory(ctx context.Context, category string, limit int) []catalog.Product {
	return e.byContainment(ctx, category, limit, e.reader.CategoryIndex)
}

// ByBrand is the brand-index analogue of ByCategory.
func (e *Engine) ByBrand(ctx context.Context, brand string, limit int) []catalog.Product {
	return e.byContainment(ctx, brand, limit, e.reader.BrandIndex)
}

func (e *Engine) byContainment(
	ctx context.Context,
	text string,
	limit int,
	load func(context.Context) (map[string][]string, error),
) []catalog.Product {
	needle := textnorm.Normalize(text)
	if needle == "" {
		return nil
	}
	idx, err := load(ctx)
	if err != nil {
		e.logger.Warn("index unavailable, degrading to empty result", "text", text, "error", err)
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	for key, keyIDs := range idx {
		if !strings.Contains(key, needle) && !strings.Contains(needle, key) {
			continue
		}
		for _, id := range keyIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	products, err := e.reader.ProductsByIDs(ctx, ids)
	if err != nil {
		e.logger.Warn("product resolution failed", "text", text, "error", err)
		return nil
	}
	return products
}

// scoreTokens runs the containment scan. Every (query token, index token)
// pair is tested both ways; an exact token match outscores a partial one,
// and scores accumulate additively per product.
func scoreTokens(terms []string, wordIndex map[string][]string) map[string]int {
	scores := make(map[string]int)
	for _, term := range terms {
		for indexToken, ids := range wordIndex {
			if !strings.Contains(indexToken, term) && !strings.Contains(term, indexToken) {
				continue
			}
			score := partialMatchScore
			if indexToken == term {
				score = exactMatchScore
			}
			for _, id := range ids {
				scores[id] += score
			}
		}
	}
	return scores
}

// rankIDs orders product ids by score descending; ties are stabilised by id
// ascending so identical input always ranks identically.
func rankIDs(scores map[string]int) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func (e *Engine) observe(result Result, start time.Time) {
	e.logger.Debug("query executed",
		"query", result.Query,
		"terms", result.Terms,
		"total", result.Total,
		"degraded", result.Degraded,
	)
	if e.metrics == nil {
		return
	}
	e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
	e.metrics.SearchResultsCount.Observe(float64(len(result.Products)))
	switch {
	case result.Degraded:
		e.metrics.SearchQueriesTotal.WithLabelValues("degraded").Inc()
	case len(result.Products) == 0:
		e.metrics.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	default:
		e.metrics.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
}
