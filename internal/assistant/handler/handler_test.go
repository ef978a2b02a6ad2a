package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopchat/catalog/internal/assistant"
	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/intent"
	"github.com/shopchat/catalog/internal/search"
)

type fakeAnswerer struct {
	resp    assistant.Response
	message string
	limit   int
}

func (f *fakeAnswerer) Answer(ctx context.Context, message string, limit int) assistant.Response {
	f.message = message
	f.limit = limit
	return f.resp
}

type fakeSearcher struct {
	result search.Result
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) search.Result {
	f.result.Query = query
	return f.result
}

type fakeReader struct {
	meta       catalog.Metadata
	categories []catalog.NameCount
	brands     []catalog.NameCount
	discounted []catalog.Product
	err        error
}

func (f *fakeReader) Metadata(ctx context.Context) (catalog.Metadata, error) {
	return f.meta, f.err
}

func (f *fakeReader) Categories(ctx context.Context) ([]catalog.NameCount, error) {
	return f.categories, f.err
}

func (f *fakeReader) Brands(ctx context.Context) ([]catalog.NameCount, error) {
	return f.brands, f.err
}

func (f *fakeReader) RandomProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	return nil, f.err
}

func (f *fakeReader) DiscountedProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	return f.discounted, f.err
}

func newTestHandler(answerer *fakeAnswerer, reader *fakeReader) *Handler {
	return New(answerer, &fakeSearcher{}, reader, 15, 50)
}

func TestQuery(t *testing.T) {
	answerer := &fakeAnswerer{resp: assistant.Response{
		Intent:  intent.IntentGeneral,
		Terms:   []string{"sampon"},
		Context: "CATALOG STATS:\n",
	}}
	h := newTestHandler(answerer, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query",
		strings.NewReader(`{"message": "hľadám šampón"}`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if answerer.message != "hľadám šampón" {
		t.Errorf("message = %q", answerer.message)
	}
	if answerer.limit != 15 {
		t.Errorf("limit = %d, want default 15", answerer.limit)
	}

	var resp assistant.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Intent != intent.IntentGeneral || resp.Context == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestQueryClampsLimit(t *testing.T) {
	answerer := &fakeAnswerer{}
	h := newTestHandler(answerer, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/query",
		strings.NewReader(`{"message": "gél", "limit": 500}`))
	rec := httptest.NewRecorder()
	h.Query(rec, req)

	if answerer.limit != 50 {
		t.Errorf("limit = %d, want clamped to 50", answerer.limit)
	}
}

func TestQueryRejectsEmptyMessage(t *testing.T) {
	h := newTestHandler(&fakeAnswerer{}, &fakeReader{})
	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message": "  "}`},
		{"missing field", `{}`},
		{"invalid json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Query(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestQueryRejectsGet(t *testing.T) {
	h := newTestHandler(&fakeAnswerer{}, &fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/query", nil)
	rec := httptest.NewRecorder()
	h.Query(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestDebugSearch(t *testing.T) {
	h := newTestHandler(&fakeAnswerer{}, &fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=sampon", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result search.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Query != "sampon" {
		t.Errorf("Query = %q, want sampon", result.Query)
	}
}

func TestDebugSearchRequiresQuery(t *testing.T) {
	h := newTestHandler(&fakeAnswerer{}, &fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDebugStats(t *testing.T) {
	reader := &fakeReader{
		meta:       catalog.Metadata{Count: 1234},
		categories: []catalog.NameCount{{Name: "Pranie", Count: 80}},
		brands:     []catalog.NameCount{{Name: "Nivea", Count: 40}, {Name: "Fa", Count: 12}},
	}
	h := newTestHandler(&fakeAnswerer{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?type=stats", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["total_products"] != float64(1234) {
		t.Errorf("total_products = %v, want 1234", body["total_products"])
	}
	if body["brands"] != float64(2) {
		t.Errorf("brands = %v, want 2", body["brands"])
	}
}

func TestDebugDiscounts(t *testing.T) {
	reader := &fakeReader{discounted: []catalog.Product{{ID: "p3", HasDiscount: true}}}
	h := newTestHandler(&fakeAnswerer{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?type=discounts", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"p3"`) {
		t.Errorf("body = %s, missing discounted product", rec.Body.String())
	}
}

func TestDebugUnknownType(t *testing.T) {
	h := newTestHandler(&fakeAnswerer{}, &fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?type=everything", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDebugStoreFailure(t *testing.T) {
	reader := &fakeReader{err: context.DeadlineExceeded}
	h := newTestHandler(&fakeAnswerer{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?type=categories", nil)
	rec := httptest.NewRecorder()
	h.Debug(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
