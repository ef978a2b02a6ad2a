// Package store persists catalog generations in Redis: product records, the
// id set, the three inverted indexes, and sync metadata. Writes are batched
// through pipelines; metadata is always written last so a reader observing
// fresh metadata can rely on the rest of the generation being complete.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/index"
	"github.com/shopchat/catalog/pkg/config"
	apperrors "github.com/shopchat/catalog/pkg/errors"
	"github.com/shopchat/catalog/pkg/redis"
)

// Logical key layout. Kept stable; external tooling reads these directly.
const (
	keyProductPrefix = "product:"
	keyAllIDs        = "products:all_ids"
	keyCount         = "products:count"
	keyLastUpdate    = "products:last_update"
	keyDiscountIDs   = "products:discount_ids"
	keyWordIndex     = "index:words"
	keyCategoryIndex = "index:categories"
	keyBrandIndex    = "index:brands"
)

// Store reads and writes catalog generations.
type Store struct {
	rdb       *redis.Client
	batchSize int
	workers   int
	logger    *slog.Logger
}

// New creates a Store. batchSize bounds commands per pipeline round trip and
// workers bounds concurrent in-flight batches.
func New(rdb *redis.Client, cfg config.SyncConfig) *Store {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	workers := cfg.WriteWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Store{
		rdb:       rdb,
		batchSize: batch,
		workers:   workers,
		logger:    slog.Default().With("component", "catalog-store"),
	}
}

// ProductKey returns the Redis key for a product id.
func ProductKey(id string) string {
	return keyProductPrefix + id
}

// ReplaceCatalog overwrites the previous generation with the given products
// and indexes. Deletions and insertions run in fixed-size batches; batches
// may execute in parallel, but the metadata write strictly follows the
// completion of every product and index write. There is no cross-batch
// atomicity: a failed run leaves a mixed old/new state and must be retried.
func (s *Store) ReplaceCatalog(ctx context.Context, products []catalog.Product, idx index.Result) error {
	if err := s.deletePreviousGeneration(ctx); err != nil {
		return err
	}
	if err := s.writeProducts(ctx, products); err != nil {
		return err
	}
	if err := s.writeIndexes(ctx, idx); err != nil {
		return err
	}

	// Metadata last (ordering guarantee).
	now := time.Now().UTC()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, keyCount, len(products))
	pipe.Set(ctx, keyLastUpdate, now.Format(time.RFC3339))
	if err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: writing metadata: %v", apperrors.ErrStoreUnavailable, err)
	}

	s.logger.Info("catalog generation replaced",
		"products", len(products),
		"word_tokens", len(idx.Words),
		"categories", len(idx.Categories),
		"brands", len(idx.Brands),
	)
	return nil
}

func (s *Store) deletePreviousGeneration(ctx context.Context) error {
	oldIDs, err := s.rdb.SMembers(ctx, keyAllIDs)
	if err != nil && !redis.IsNilError(err) {
		return fmt.Errorf("%w: reading previous ids: %v", apperrors.ErrStoreUnavailable, err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, batch := range chunk(oldIDs, s.batchSize) {
		batch := batch
		g.Go(func() error {
			keys := make([]string, len(batch))
			for i, id := range batch {
				keys[i] = ProductKey(id)
			}
			pipe := s.rdb.Pipeline()
			pipe.Del(gctx, keys...)
			return pipe.Exec(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: deleting previous generation: %v", apperrors.ErrStoreUnavailable, err)
	}
	if err := s.rdb.Del(ctx, keyAllIDs, keyDiscountIDs); err != nil {
		return fmt.Errorf("%w: clearing id sets: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) writeProducts(ctx context.Context, products []catalog.Product) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, batch := range chunk(products, s.batchSize) {
		batch := batch
		g.Go(func() error {
			pipe := s.rdb.Pipeline()
			ids := make([]interface{}, 0, len(batch))
			for _, p := range batch {
				data, err := json.Marshal(p)
				if err != nil {
					return fmt.Errorf("marshaling product %s: %w", p.ID, err)
				}
				pipe.Set(gctx, ProductKey(p.ID), data)
				ids = append(ids, p.ID)
			}
			if len(ids) > 0 {
				pipe.SAdd(gctx, keyAllIDs, ids...)
			}
			return pipe.Exec(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: writing products: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) writeIndexes(ctx context.Context, idx index.Result) error {
	if err := s.rdb.Del(ctx, keyWordIndex, keyCategoryIndex, keyBrandIndex); err != nil {
		return fmt.Errorf("%w: clearing indexes: %v", apperrors.ErrStoreUnavailable, err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	s.writeIndexHash(g, gctx, keyWordIndex, idx.Words)
	s.writeIndexHash(g, gctx, keyCategoryIndex, idx.Categories)
	s.writeIndexHash(g, gctx, keyBrandIndex, idx.Brands)
	if len(idx.DiscountedIDs) > 0 {
		g.Go(func() error {
			pipe := s.rdb.Pipeline()
			members := make([]interface{}, len(idx.DiscountedIDs))
			for i, id := range idx.DiscountedIDs {
				members[i] = id
			}
			pipe.SAdd(gctx, keyDiscountIDs, members...)
			return pipe.Exec(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: writing indexes: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// writeIndexHash queues HSET batches for one index hash. Entry order within
// the hash does not matter; id lists are JSON-encoded.
func (s *Store) writeIndexHash(g *errgroup.Group, ctx context.Context, key string, entries map[string][]string) {
	fields := make([]string, 0, len(entries))
	for field := range entries {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, batch := range chunk(fields, s.batchSize) {
		batch := batch
		g.Go(func() error {
			pipe := s.rdb.Pipeline()
			for _, field := range batch {
				data, err := json.Marshal(entries[field])
				if err != nil {
					return fmt.Errorf("marshaling index entry %s: %w", field, err)
				}
				pipe.HSet(ctx, key, field, data)
			}
			return pipe.Exec(ctx)
		})
	}
}

// Product returns one product by id. The boolean reports whether it exists.
func (s *Store) Product(ctx context.Context, id string) (catalog.Product, bool, error) {
	raw, err := s.rdb.Get(ctx, ProductKey(id))
	if redis.IsNilError(err) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, fmt.Errorf("%w: reading product %s: %v", apperrors.ErrStoreUnavailable, id, err)
	}
	var p catalog.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return catalog.Product{}, false, fmt.Errorf("decoding product %s: %w", id, err)
	}
	return p, true, nil
}

// ProductsByIDs resolves products in one pipelined round trip, preserving
// input order. Missing ids are silently skipped.
func (s *Store) ProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(ctx, ProductKey(id)))
	}
	if err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading products: %v", apperrors.ErrStoreUnavailable, err)
	}
	products := make([]catalog.Product, 0, len(ids))
	for _, c := range cmds {
		raw, err := c.Result()
		if redis.IsNilError(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading products: %v", apperrors.ErrStoreUnavailable, err)
		}
		var p catalog.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Metadata returns the current generation's count and last update time.
// Absent keys yield a zero Metadata, not an error.
func (s *Store) Metadata(ctx context.Context) (catalog.Metadata, error) {
	var meta catalog.Metadata
	rawCount, err := s.rdb.Get(ctx, keyCount)
	if err != nil && !redis.IsNilError(err) {
		return meta, fmt.Errorf("%w: reading count: %v", apperrors.ErrStoreUnavailable, err)
	}
	if rawCount != "" {
		if n, convErr := strconv.Atoi(rawCount); convErr == nil {
			meta.Count = n
		}
	}
	rawTime, err := s.rdb.Get(ctx, keyLastUpdate)
	if err != nil && !redis.IsNilError(err) {
		return meta, fmt.Errorf("%w: reading last update: %v", apperrors.ErrStoreUnavailable, err)
	}
	if rawTime != "" {
		if t, parseErr := time.Parse(time.RFC3339, rawTime); parseErr == nil {
			meta.LastUpdate = t
		}
	}
	return meta, nil
}

// WordIndex returns the persisted word index.
func (s *Store) WordIndex(ctx context.Context) (map[string][]string, error) {
	return s.indexHash(ctx, keyWordIndex)
}

// CategoryIndex returns the category index.
func (s *Store) CategoryIndex(ctx context.Context) (map[string][]string, error) {
	return s.indexHash(ctx, keyCategoryIndex)
}

// BrandIndex returns the brand index.
func (s *Store) BrandIndex(ctx context.Context) (map[string][]string, error) {
	return s.indexHash(ctx, keyBrandIndex)
}

func (s *Store) indexHash(ctx context.Context, key string) (map[string][]string, error) {
	raw, err := s.rdb.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	idx := make(map[string][]string, len(raw))
	for field, value := range raw {
		var ids []string
		if err := json.Unmarshal([]byte(value), &ids); err != nil {
			continue
		}
		idx[field] = ids
	}
	return idx, nil
}

// Categories lists all categories with product counts, largest first.
func (s *Store) Categories(ctx context.Context) ([]catalog.NameCount, error) {
	idx, err := s.CategoryIndex(ctx)
	if err != nil {
		return nil, err
	}
	return nameCounts(idx), nil
}

// Brands lists all brands with product counts, largest first.
func (s *Store) Brands(ctx context.Context) ([]catalog.NameCount, error) {
	idx, err := s.BrandIndex(ctx)
	if err != nil {
		return nil, err
	}
	return nameCounts(idx), nil
}

// RandomProducts samples up to limit products from the current generation.
func (s *Store) RandomProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	ids, err := s.rdb.SRandMembers(ctx, keyAllIDs, limit)
	if err != nil && !redis.IsNilError(err) {
		return nil, fmt.Errorf("%w: sampling ids: %v", apperrors.ErrStoreUnavailable, err)
	}
	return s.ProductsByIDs(ctx, ids)
}

// DiscountedProducts returns up to limit discounted products, ordered by id
// for reproducibility.
func (s *Store) DiscountedProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	ids, err := s.rdb.SMembers(ctx, keyDiscountIDs)
	if err != nil && !redis.IsNilError(err) {
		return nil, fmt.Errorf("%w: reading discount ids: %v", apperrors.ErrStoreUnavailable, err)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return s.ProductsByIDs(ctx, ids)
}

// Ping reports store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx)
}

func nameCounts(idx map[string][]string) []catalog.NameCount {
	out := make([]catalog.NameCount, 0, len(idx))
	for name, ids := range idx {
		out = append(out, catalog.NameCount{Name: name, Count: len(ids)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// chunk splits items into slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
