package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/index"
	"github.com/shopchat/catalog/internal/search"
)

// memoryReader serves a pre-built index from memory, isolating the scoring
// and ranking cost from Redis round-trips.
type memoryReader struct {
	idx      index.Result
	products map[string]catalog.Product
}

func (r *memoryReader) WordIndex(ctx context.Context) (map[string][]string, error) {
	return r.idx.Words, nil
}

func (r *memoryReader) CategoryIndex(ctx context.Context) (map[string][]string, error) {
	return r.idx.Categories, nil
}

func (r *memoryReader) BrandIndex(ctx context.Context) (map[string][]string, error) {
	return r.idx.Brands, nil
}

func (r *memoryReader) ProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newMemoryReader(n int) *memoryReader {
	products := syntheticCatalog(n)
	byID := make(map[string]catalog.Product, n)
	for _, p := range products {
		byID[p.ID] = p
	}
	return &memoryReader{idx: index.Build(products), products: byID}
}

func BenchmarkSearch(b *testing.B) {
	queries := map[string]string{
		"single_term": "vôňou",
		"multi_term":  "kvalitný výrobok nivea",
		"no_match":    "neexistujúci tovar xyz",
	}
	for _, size := range []int{1000, 10000} {
		engine := search.New(newMemoryReader(size), nil)
		for name, query := range queries {
			b.Run(fmt.Sprintf("catalog_%d/%s", size, name), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = engine.Search(context.Background(), query, 15)
				}
			})
		}
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	engine := search.New(newMemoryReader(10000), nil)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = engine.Search(context.Background(), "kvalitný výrobok", 15)
		}
	})
}
