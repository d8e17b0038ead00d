package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erazemk/spajza/internal/catalog"
	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/metrics"
	"github.com/erazemk/spajza/internal/model"
)

func setupTestServer(t *testing.T) (*httptest.Server, *catalog.Service) {
	t.Helper()
	svc := catalog.New(db.NewTestDB(t))
	router := NewRouter(svc, Options{
		CORSOrigins: []string{"http://localhost:3000"},
		Metrics:     metrics.New(prometheus.NewRegistry()),
		MetricsPath: "/metrics",
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, svc
}

func doRequest(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s",
			resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func seed(t *testing.T, svc *catalog.Service) {
	t.Helper()
	if _, err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("seeding catalog: %v", err)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server, _ := setupTestServer(t)

	// Create item.
	resp := doRequest(t, http.MethodPost, server.URL+"/api/items", map[string]any{
		"name":     "Bananas",
		"price":    2.99,
		"quantity": 50,
		"category": "FRUITS",
		"unit":     "LB",
	})
	expectStatus(t, resp, http.StatusCreated)
	created := decode[map[string]any](t, resp)

	id, ok := created["id"].(float64)
	if !ok || id == 0 {
		t.Fatalf("expected assigned id, got %v", created["id"])
	}
	for _, key := range []string{"createdAt", "updatedAt"} {
		if s, _ := created[key].(string); s == "" {
			t.Errorf("expected %s to be set", key)
		}
	}
	if _, present := created["description"]; !present {
		t.Error("expected description to be present as null")
	}
	if created["price"] != 2.99 {
		t.Errorf("expected price 2.99, got %v", created["price"])
	}

	itemURL := server.URL + "/api/items/" + strconv.FormatInt(int64(id), 10)

	// Get returns the same body.
	resp = doRequest(t, http.MethodGet, itemURL, nil)
	expectStatus(t, resp, http.StatusOK)
	got := decode[map[string]any](t, resp)
	for k, v := range created {
		if got[k] != v {
			t.Errorf("field %s: expected %v, got %v", k, v, got[k])
		}
	}

	// Delete.
	resp = doRequest(t, http.MethodDelete, itemURL, nil)
	expectStatus(t, resp, http.StatusNoContent)

	// Gone.
	resp = doRequest(t, http.MethodGet, itemURL, nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, http.MethodDelete, itemURL, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestCreateErrors(t *testing.T) {
	server, _ := setupTestServer(t)
	url := server.URL + "/api/items"

	valid := map[string]any{"name": "Milk", "price": "3.99", "quantity": 15, "category": "DAIRY"}
	expectStatus(t, doRequest(t, http.MethodPost, url, valid), http.StatusCreated)

	// Duplicate in a different case.
	resp := doRequest(t, http.MethodPost, url, map[string]any{
		"name": "MILK", "price": 1, "quantity": 1, "category": "DAIRY",
	})
	expectStatus(t, resp, http.StatusBadRequest)
	body := decode[map[string]any](t, resp)
	if msg, _ := body["error"].(string); !strings.Contains(msg, "already exists") {
		t.Errorf("expected duplicate message, got %q", msg)
	}

	// Validation failure lists the fields.
	resp = doRequest(t, http.MethodPost, url, map[string]any{
		"name": "", "price": 0, "quantity": -1, "category": "DAIRY",
	})
	expectStatus(t, resp, http.StatusBadRequest)
	verr := decode[validationResponse](t, resp)
	for _, field := range []string{"name", "price", "quantity"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected violation for %s, got %v", field, verr.Fields)
		}
	}

	// Malformed body.
	expectStatus(t, doRequest(t, http.MethodPost, url, "{not json"), http.StatusBadRequest)
}

func TestUpdateAPI(t *testing.T) {
	server, svc := setupTestServer(t)
	seed(t, svc)

	items, _ := svc.SearchByName(context.Background(), "Cheese")
	cheese := items[0]
	url := server.URL + "/api/items/" + strconv.FormatInt(cheese.ID, 10)

	resp := doRequest(t, http.MethodPut, url, map[string]any{"price": 6.49})
	expectStatus(t, resp, http.StatusOK)
	updated := decode[model.Item](t, resp)
	if updated.Price != model.NewPrice(6, 49) || updated.Quantity != cheese.Quantity || updated.Name != "Cheese" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	expectStatus(t, doRequest(t, http.MethodPut, url, map[string]any{"name": "milk"}), http.StatusBadRequest)
	expectStatus(t, doRequest(t, http.MethodPut, url, map[string]any{"quantity": -2}), http.StatusBadRequest)
	expectStatus(t, doRequest(t, http.MethodPut, server.URL+"/api/items/9999", map[string]any{}), http.StatusNotFound)
	expectStatus(t, doRequest(t, http.MethodGet, server.URL+"/api/items/abc", nil), http.StatusBadRequest)
}

func TestDeleteMissingItem(t *testing.T) {
	server, svc := setupTestServer(t)
	seed(t, svc)

	resp := doRequest(t, http.MethodDelete, server.URL+"/api/items/9999", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/items", nil)
	expectStatus(t, resp, http.StatusOK)
	if items := decode[[]model.Item](t, resp); len(items) != 15 {
		t.Errorf("expected 15 items after failed delete, got %d", len(items))
	}
}

func TestQueryEndpoints(t *testing.T) {
	server, svc := setupTestServer(t)
	seed(t, svc)
	base := server.URL + "/api/items"

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"list", "", http.StatusOK, 15},
		{"search", "/search?name=AN", http.StatusOK, 2},
		{"search without name", "/search", http.StatusBadRequest, -1},
		{"category", "/category/DAIRY", http.StatusOK, 3},
		{"unknown category", "/category/SNACKS", http.StatusOK, 0},
		{"price range", "/price-range?minPrice=1.00&maxPrice=2.00", http.StatusOK, 3},
		{"price range missing bound", "/price-range?minPrice=1", http.StatusBadRequest, -1},
		{"price range bad bound", "/price-range?minPrice=1&maxPrice=abc", http.StatusBadRequest, -1},
		{"filter", "/filter?category=FRUITS&minPrice=1.00&maxPrice=5.00", http.StatusOK, 3},
		{"filter category only", "/filter?category=MEAT", http.StatusOK, 3},
		{"filter category and min", "/filter?category=FRUITS&minPrice=3.49", http.StatusOK, 2},
		{"filter category and max", "/filter?category=DAIRY&maxPrice=3.99", http.StatusOK, 2},
		{"filter empty params", "/filter?category=&minPrice=", http.StatusOK, 15},
		{"filter bad price", "/filter?maxPrice=cheap", http.StatusBadRequest, -1},
		{"low stock default", "/low-stock", http.StatusOK, 2},
		{"low stock threshold", "/low-stock?threshold=11", http.StatusOK, 4},
		{"low stock bad threshold", "/low-stock?threshold=few", http.StatusBadRequest, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, base+tt.path, nil)
			expectStatus(t, resp, tt.status)
			if tt.count < 0 {
				return
			}
			items := decode[[]model.Item](t, resp)
			if len(items) != tt.count {
				t.Errorf("expected %d items, got %d", tt.count, len(items))
			}
		})
	}
}

func TestEmptyResultsAreArrays(t *testing.T) {
	server, _ := setupTestServer(t)

	for _, path := range []string{"/api/items", "/api/items/categories", "/api/items/search?name=x"} {
		resp := doRequest(t, http.MethodGet, server.URL+path, nil)
		expectStatus(t, resp, http.StatusOK)
		body, _ := io.ReadAll(resp.Body)
		if strings.TrimSpace(string(body)) != "[]" {
			t.Errorf("%s: expected [], got %s", path, body)
		}
	}
}

func TestCategoriesAPI(t *testing.T) {
	server, svc := setupTestServer(t)
	seed(t, svc)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/items/categories", nil)
	expectStatus(t, resp, http.StatusOK)
	categories := decode[[]string](t, resp)
	want := "DAIRY,FRUITS,GRAINS,MEAT,VEGETABLES"
	if strings.Join(categories, ",") != want {
		t.Errorf("expected %s, got %v", want, categories)
	}

	resp = doRequest(t, http.MethodGet, server.URL+"/api/items/categories/GRAINS/count", nil)
	expectStatus(t, resp, http.StatusOK)
	count := decode[categoryCount](t, resp)
	if count.Category != "GRAINS" || count.Count != 3 {
		t.Errorf("unexpected count: %+v", count)
	}
}

func TestHealth(t *testing.T) {
	server, svc := setupTestServer(t)
	seed(t, svc)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/health", nil)
	expectStatus(t, resp, http.StatusOK)
	health := decode[healthResponse](t, resp)
	if health.Status != "ok" || health.Items != 15 {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestMiddleware(t *testing.T) {
	server, _ := setupTestServer(t)

	// Preflight from an allowed origin.
	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	// Other origins get no CORS headers.
	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header, got %q", got)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	// Generated request id.
	resp = doRequest(t, http.MethodGet, server.URL+"/api/items", nil)
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	// Metrics endpoint sees the routed requests.
	resp = doRequest(t, http.MethodGet, server.URL+"/metrics", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `route="GET /api/items"`) {
		t.Errorf("expected route label in metrics output")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
