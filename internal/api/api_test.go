package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/supplylens/supplylens/internal/cache"
	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/repository"
)

// createTestServer builds a server over a temp SQLite store with a few
// seeded rows. The reporting tables are intentionally not provisioned.
func createTestServer(t *testing.T) (*Server, domain.Repository) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "supplylens-api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := t.Context()
	active := &domain.Category{
		ID: "cat-electronics", Name: "electronics", DisplayName: "Electronics",
		Color: "#3355ff", SortOrder: 1, IsActive: true,
	}
	retired := &domain.Category{
		ID: "cat-retired", Name: "retired", DisplayName: "Retired",
		Color: "#999999", SortOrder: 9, IsActive: false,
	}
	for _, c := range []*domain.Category{active, retired} {
		if err := repo.SaveCategory(ctx, c); err != nil {
			t.Fatalf("SaveCategory failed: %v", err)
		}
	}

	txs := []*domain.Transaction{
		{
			ID: "tx-100", OriginCountryCode: "KR", DestinationCountryCode: "US",
			CategoryID: "cat-electronics", Quantity: 10, Price: 50, TotalValue: 500,
			TransactionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: "completed",
		},
		{
			ID: "tx-101", OriginCountryCode: "CN", DestinationCountryCode: "DE",
			CategoryID: "cat-electronics", Quantity: 4, Price: 25, TotalValue: 100,
			TransactionDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Status: "pending",
		},
	}
	for _, tx := range txs {
		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction failed: %v", err)
		}
	}

	cfg := domain.DefaultConfig()
	cfg.CORS.Origins = []string{"http://localhost:3001"}
	cfg.CORS.OriginRegex = `^https://preview-.*\.example\.com$`

	c := cache.NewMemoryCache(64, time.Minute)
	t.Cleanup(func() { c.Close() })

	return NewServer(cfg, repo, c, "test-v1"), repo
}

func doGet(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := createTestServer(t)

	rr := doGet(t, server, "/api/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %s", resp["status"])
	}
	if resp["version"] != "test-v1" {
		t.Errorf("expected version test-v1, got %s", resp["version"])
	}
}

func TestCORS(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("AllowedOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:3001")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3001" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("RegexOrigin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://preview-42.example.com")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://preview-42.example.com" {
			t.Errorf("expected preview origin allowed, got %q", got)
		}
	})

	t.Run("UnlistedOriginGetsNoHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://evil.example.org")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS headers, got %q", got)
		}
	})

	t.Run("HeadersPresentOn404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/no-such-route", nil)
		req.Header.Set("Origin", "http://localhost:3001")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3001" {
			t.Errorf("expected CORS headers on 404, got %q", got)
		}
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
		req.Header.Set("Origin", "http://localhost:3001")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rr.Code)
		}
	})
}

func TestCategoryEndpoints(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("ActiveOnlyByDefault", func(t *testing.T) {
		rr := doGet(t, server, "/api/categories")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var cats []domain.Category
		if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(cats) != 1 || cats[0].ID != "cat-electronics" {
			t.Errorf("expected only the active category, got %+v", cats)
		}
	})

	t.Run("IncludeInactive", func(t *testing.T) {
		rr := doGet(t, server, "/api/categories?active_only=false")

		var cats []domain.Category
		if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(cats) != 2 {
			t.Errorf("expected 2 categories, got %d", len(cats))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		rr := doGet(t, server, "/api/categories/nope")
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})
}

func TestTransactionEndpoints(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("ListAll", func(t *testing.T) {
		rr := doGet(t, server, "/api/transactions")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var list domain.TransactionList
		if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if list.Pagination.Total != 2 {
			t.Errorf("expected total 2, got %d", list.Pagination.Total)
		}
	})

	t.Run("EmptyParamMeansAbsent", func(t *testing.T) {
		rr := doGet(t, server, "/api/transactions?origin_country=&status=")

		var list domain.TransactionList
		if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if list.Pagination.Total != 2 {
			t.Errorf("empty params must not filter, got total %d", list.Pagination.Total)
		}
	})

	t.Run("CommaSeparatedStatus", func(t *testing.T) {
		rr := doGet(t, server, "/api/transactions?status=completed,cancelled")

		var list domain.TransactionList
		if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if list.Pagination.Total != 1 || list.Transactions[0].ID != "tx-100" {
			t.Errorf("status multi filter failed: %+v", list)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		rr := doGet(t, server, "/api/transactions/stats")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var stats domain.TransactionStats
		if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if stats.TotalTransactions != 2 || stats.TotalValue != 600 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}

func TestTradeStatsEndpoints(t *testing.T) {
	server, _ := createTestServer(t)

	t.Run("MissingTableReturnsEmptyList", func(t *testing.T) {
		rr := doGet(t, server, "/api/country-trade-stats")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("expected empty JSON array, got %s", body)
		}
	})

	t.Run("MissingTableSummaryIsZero", func(t *testing.T) {
		rr := doGet(t, server, "/api/country-trade-stats/summary")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var s domain.TradeStatSummary
		if err := json.Unmarshal(rr.Body.Bytes(), &s); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if s.TotalCountries != 0 || s.TotalTradeValue != 0.0 {
			t.Errorf("expected zero-valued summary, got %+v", s)
		}
	})

	t.Run("MalformedYearMonthIs400", func(t *testing.T) {
		rr := doGet(t, server, "/api/country-trade-stats?start_year_month=bogus")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("ShipmentsEmptyWithoutTable", func(t *testing.T) {
		rr := doGet(t, server, "/api/shipments?country=KR")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("expected empty JSON array, got %s", body)
		}
	})
}

func TestAggregationCaching(t *testing.T) {
	server, repo := createTestServer(t)

	first := doGet(t, server, "/api/transactions/stats")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	// A write after the first request must not change the cached body.
	tx := &domain.Transaction{
		ID: "tx-999", OriginCountryCode: "JP", DestinationCountryCode: "US",
		CategoryID: "cat-electronics", Quantity: 1, Price: 10, TotalValue: 10,
		TransactionDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Status: "completed",
	}
	if err := repo.SaveTransaction(t.Context(), tx); err != nil {
		t.Fatalf("SaveTransaction failed: %v", err)
	}

	second := doGet(t, server, "/api/transactions/stats")
	if second.Body.String() != first.Body.String() {
		t.Error("expected second response served from cache")
	}

	// A different query string is a different cache key.
	third := doGet(t, server, "/api/transactions/stats?origin_country=JP")
	if third.Body.String() == first.Body.String() {
		t.Error("expected distinct cache entries per query string")
	}
}

func TestChatEndpoint(t *testing.T) {
	t.Run("UnconfiguredIs503", func(t *testing.T) {
		server, _ := createTestServer(t)

		body, _ := json.Marshal(ChatRequest{Message: "hello"})
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("NonStreaming", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("expected bearer auth, got %q", got)
			}
			if !strings.HasSuffix(r.URL.Path, "/v1/chat/completions") {
				t.Errorf("unexpected upstream path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"choices":[{"message":{"content":"42 shipments"}}]}`)
		}))
		defer upstream.Close()

		server, _ := createTestServer(t)
		server.Handler().chat = domain.ChatConfig{
			APIKey:  "test-key",
			BaseURL: upstream.URL,
			Model:   "gpt-4o-2024-08-06",
		}

		body, _ := json.Marshal(ChatRequest{Message: "how many shipments?"})
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp["response"] != "42 shipments" {
			t.Errorf("expected upstream content, got %q", resp["response"])
		}
	})

	t.Run("Streaming", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		defer upstream.Close()

		server, _ := createTestServer(t)
		server.Handler().chat = domain.ChatConfig{
			APIKey:  "test-key",
			BaseURL: upstream.URL,
			Model:   "gpt-4o-2024-08-06",
		}

		body, _ := json.Marshal(ChatRequest{Message: "hi", Stream: true})
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		out := rr.Body.String()
		if !strings.Contains(out, `data: {"content":"Hello"}`) {
			t.Errorf("expected first content frame, got %s", out)
		}
		if !strings.Contains(out, `data: {"done": true}`) {
			t.Errorf("expected terminal done frame, got %s", out)
		}
	})
}
