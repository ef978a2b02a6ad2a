// Package index builds the inverted indexes over a catalog generation:
// word → product ids, category → product ids, and brand → product ids.
// Build is pure; persistence is the store's concern.
package index

import (
	"sort"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/textnorm"
)

const (
	// MinTokenLen is the minimum length of an indexed token.
	MinTokenLen = 3
	// MaxTokensPerProduct bounds index fan-out per product.
	MaxTokensPerProduct = 50
	// MinProductsPerToken is the persistence filter: tokens backed by fewer
	// distinct products are noise and are dropped.
	MinProductsPerToken = 2
	// MaxRetainedTokens caps the persisted word index size.
	MaxRetainedTokens = 10000
)

// Result is the outcome of one index build. Posting lists are sorted by
// product id so that identical input always produces identical output.
type Result struct {
	Words         map[string][]string
	Categories    map[string][]string
	Brands        map[string][]string
	DiscountedIDs []string

	ExtractedTokens int
	DroppedTokens   int
}

// Build constructs the three inverted indexes plus the discounted-id list
// for the given product set.
func Build(products []catalog.Product) Result {
	words := make(map[string]map[string]struct{})
	categories := make(map[string]map[string]struct{})
	brands := make(map[string]map[string]struct{})
	var discounted []string

	for _, p := range products {
		text := p.Title + " " + p.Description + " " + p.Brand
		for _, token := range textnorm.Tokens(text, MinTokenLen, MaxTokensPerProduct) {
			addPosting(words, token, p.ID)
		}
		if p.Category != "" {
			addPosting(categories, textnorm.Normalize(p.Category), p.ID)
		}
		if p.Brand != "" {
			addPosting(brands, textnorm.Normalize(p.Brand), p.ID)
		}
		if p.HasDiscount {
			discounted = append(discounted, p.ID)
		}
	}

	retained, dropped := filterWords(words)

	return Result{
		Words:           retained,
		Categories:      collapse(categories),
		Brands:          collapse(brands),
		DiscountedIDs:   discounted,
		ExtractedTokens: len(words),
		DroppedTokens:   dropped,
	}
}

func addPosting(idx map[string]map[string]struct{}, key, id string) {
	set, ok := idx[key]
	if !ok {
		set = make(map[string]struct{})
		idx[key] = set
	}
	set[id] = struct{}{}
}

// filterWords applies the persistence filter: only tokens backed by at least
// MinProductsPerToken distinct products are kept, and at most
// MaxRetainedTokens survive. Retention order is deterministic: higher
// product count first, then token ascending.
func filterWords(words map[string]map[string]struct{}) (map[string][]string, int) {
	type entry struct {
		token string
		count int
	}
	eligible := make([]entry, 0, len(words))
	for token, ids := range words {
		if len(ids) >= MinProductsPerToken {
			eligible = append(eligible, entry{token, len(ids)})
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].count != eligible[j].count {
			return eligible[i].count > eligible[j].count
		}
		return eligible[i].token < eligible[j].token
	})
	if len(eligible) > MaxRetainedTokens {
		eligible = eligible[:MaxRetainedTokens]
	}

	retained := make(map[string][]string, len(eligible))
	for _, e := range eligible {
		retained[e.token] = sortedIDs(words[e.token])
	}
	return retained, len(words) - len(retained)
}

func collapse(idx map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(idx))
	for key, ids := range idx {
		out[key] = sortedIDs(ids)
	}
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
