// Package integration contains tests that exercise the sync write path and
// the assistant read path against a real Redis instance. The tests skip
// when Redis is unavailable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopchat/catalog/internal/assistant"
	asthandler "github.com/shopchat/catalog/internal/assistant/handler"
	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/index"
	"github.com/shopchat/catalog/internal/intent"
	"github.com/shopchat/catalog/internal/search"
	"github.com/shopchat/catalog/internal/store"
	"github.com/shopchat/catalog/pkg/config"
	"github.com/shopchat/catalog/pkg/redis"
)

// skipIfNoRedis skips the test when Redis is unavailable.
func skipIfNoRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := redis.NewClient(config.RedisConfig{Addr: addr, DB: 15, PoolSize: 5})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	return client
}

func seedCatalog(t *testing.T, s *store.Store) []catalog.Product {
	t.Helper()
	sale := 4.50
	products := []catalog.Product{
		{
			ID: "p1", Title: "Šampón Nivea 400ml", Description: "Jemný šampón na vlasy",
			Price: 5.99, Category: "Vlasová kozmetika", Brand: "Nivea",
			Available: true, StockQuantity: 10, Currency: "EUR",
		},
		{
			ID: "p2", Title: "Šampón Fa proti lupinám", Description: "Šampón na mastné vlasy",
			Price: 6.00, SalePrice: &sale, HasDiscount: true, DiscountPercentage: 25,
			Category: "Vlasová kozmetika", Brand: "Fa", Available: true, Currency: "EUR",
		},
		{
			ID: "p3", Title: "Prací prášok Persil", Description: "Na bielu bielizeň",
			Price: 12.99, Category: "Pranie", Brand: "Persil", Available: false, Currency: "EUR",
		},
	}
	if err := s.ReplaceCatalog(context.Background(), products, index.Build(products)); err != nil {
		t.Fatalf("ReplaceCatalog() error = %v", err)
	}
	return products
}

func TestCatalogRoundTrip(t *testing.T) {
	client := skipIfNoRedis(t)
	s := store.New(client, config.SyncConfig{BatchSize: 2, WriteWorkers: 2})
	seedCatalog(t, s)

	ctx := context.Background()

	meta, err := s.Metadata(ctx)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Count != 3 {
		t.Errorf("Count = %d, want 3", meta.Count)
	}
	if meta.LastUpdate.IsZero() {
		t.Error("LastUpdate is zero after a sync")
	}

	p, ok, err := s.Product(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("Product() = %v, %v, %v", p, ok, err)
	}
	if p.Title != "Šampón Nivea 400ml" {
		t.Errorf("Title = %q", p.Title)
	}

	engine := search.New(s, nil)
	result := engine.Search(ctx, "šampón", 10)
	if result.Total != 2 {
		t.Errorf("Total = %d, want the two shampoo products", result.Total)
	}

	discounted, err := s.DiscountedProducts(ctx, 10)
	if err != nil {
		t.Fatalf("DiscountedProducts() error = %v", err)
	}
	if len(discounted) != 1 || discounted[0].ID != "p2" {
		t.Errorf("discounted = %v, want [p2]", discounted)
	}
}

func TestGenerationReplacement(t *testing.T) {
	client := skipIfNoRedis(t)
	s := store.New(client, config.SyncConfig{BatchSize: 100, WriteWorkers: 2})
	seedCatalog(t, s)

	replacement := []catalog.Product{
		{ID: "n1", Title: "Nový produkt jeden", Available: true, Currency: "EUR"},
		{ID: "n2", Title: "Nový produkt dva", Available: true, Currency: "EUR"},
	}
	if err := s.ReplaceCatalog(context.Background(), replacement, index.Build(replacement)); err != nil {
		t.Fatalf("ReplaceCatalog() error = %v", err)
	}

	ctx := context.Background()
	meta, err := s.Metadata(ctx)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Count != 2 {
		t.Errorf("Count = %d, want 2 after replacement", meta.Count)
	}
	if _, ok, _ := s.Product(ctx, "p1"); ok {
		t.Error("previous generation product p1 still present")
	}
}

func TestAssistantEndToEnd(t *testing.T) {
	client := skipIfNoRedis(t)
	s := store.New(client, config.SyncConfig{BatchSize: 100, WriteWorkers: 2})
	seedCatalog(t, s)

	engine := search.New(s, nil)
	ast := assistant.New(engine, s, intent.New(nil), nil)
	h := asthandler.New(ast, engine, s, 15, 50)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", h.Query)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/query", "application/json",
		strings.NewReader(`{"message": "hľadám šampón na vlasy"}`))
	if err != nil {
		t.Fatalf("POST /api/v1/query error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body assistant.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Products) == 0 {
		t.Fatal("no products returned for a matching query")
	}
	if !strings.Contains(body.Context, "MATCHED PRODUCTS") {
		t.Errorf("context block missing product section:\n%s", body.Context)
	}
	if !strings.Contains(body.Context, "(originally €6.00, -25%)") {
		t.Errorf("context block missing discount line:\n%s", body.Context)
	}
}
