package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"glow.fit/glowscan/internal/db"
)

type fakeStore struct {
	pingErr  error
	counts   db.CatalogCounts
	products []db.Product
	listErr  error

	lastLimit int
}

func (s *fakeStore) Ping(_ context.Context) error {
	return s.pingErr
}

func (s *fakeStore) CountCatalog(_ context.Context) (db.CatalogCounts, error) {
	return s.counts, nil
}

func (s *fakeStore) ListRecentProducts(_ context.Context, limit int) ([]db.Product, error) {
	s.lastLimit = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.products, nil
}

func newTestServer(store Store) *Server {
	return NewServer(store, zerolog.Nop(), Options{})
}

func doRequest(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := server.buildEcho()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) jsendResponse {
	t.Helper()
	var resp jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestServer(&fakeStore{}), "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeJSend(t, rec)
	if resp.Status != "success" {
		t.Fatalf("jsend status = %q, want success", resp.Status)
	}
}

func TestHandleHealthDatabaseDown(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestServer(&fakeStore{pingErr: errors.New("no route to host")}), "/api/v1/health")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeJSend(t, rec)
	if resp.Status != "error" {
		t.Fatalf("jsend status = %q, want error", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	t.Parallel()

	store := &fakeStore{counts: db.CatalogCounts{Products: 12, Videos: 4, Reviews: 30}}
	rec := doRequest(t, newTestServer(store), "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status string           `json:"status"`
		Data   db.CatalogCounts `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data != store.counts {
		t.Fatalf("counts = %+v, want %+v", resp.Data, store.counts)
	}
}

func TestHandleProductsDefaultLimit(t *testing.T) {
	t.Parallel()

	store := &fakeStore{products: []db.Product{
		{ProductID: "p1", Name: "Glow Serum", CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}}
	rec := doRequest(t, newTestServer(store), "/api/v1/products")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLimit != defaultProductLimit {
		t.Fatalf("limit = %d, want default %d", store.lastLimit, defaultProductLimit)
	}
}

func TestHandleProductsInvalidLimit(t *testing.T) {
	t.Parallel()

	for _, limit := range []string{"abc", "0", "9999"} {
		rec := doRequest(t, newTestServer(&fakeStore{}), "/api/v1/products?limit="+limit)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
		resp := decodeJSend(t, rec)
		if resp.Status != "fail" {
			t.Fatalf("limit=%s: jsend status = %q, want fail", limit, resp.Status)
		}
	}
}

func TestHandleProductsStoreFailure(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestServer(&fakeStore{listErr: errors.New("db down")}), "/api/v1/products")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
