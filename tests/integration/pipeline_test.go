//go:build integration
// +build integration

// Package integration provides end-to-end tests for the supplylens
// reporting pipeline: trade data is imported with the ETL loader into a
// fresh store, then read back through the HTTP API.
//
// Run with: go test -tags=integration -v ./tests/integration/...
package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/supplylens/supplylens/internal/api"
	"github.com/supplylens/supplylens/internal/cache"
	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/etl"
	"github.com/supplylens/supplylens/internal/repository"
)

func newPipeline(t *testing.T) (*httptest.Server, *etl.Loader, domain.Repository) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "supplylens-integration-*.db")
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

	cfg := domain.DefaultConfig()
	c := cache.NewMemoryCache(64, time.Minute)
	srv := api.NewServer(cfg, repo, c, "integration-test")

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return ts, etl.NewLoader(repo, etl.DefaultBatchSize, zerolog.Nop()), repo
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestReportingPipeline(t *testing.T) {
	ts, loader, _ := newPipeline(t)
	ctx := t.Context()

	// Before any import the reporting endpoints degrade to empty
	// results instead of failing.
	t.Run("EmptyStoreDegrades", func(t *testing.T) {
		var rows []map[string]any
		if status := getJSON(t, ts.URL+"/api/country-trade-stats", &rows); status != http.StatusOK {
			t.Fatalf("expected 200, got %d", status)
		}
		if len(rows) != 0 {
			t.Errorf("expected no rows before import, got %d", len(rows))
		}
	})

	dataDir := t.TempDir()
	writeFixture(t, filepath.Join(dataDir, "SemiConductor", "854231_2023.json"), `{
		"05": [
			{"countryCode": "US", "weight": 1000, "quantity": 200, "sumOfUSD": 90000, "tradeCount": 12, "amountSharePct": 0.4},
			{"countryCode": "KR", "weight": 500, "quantity": 100, "sumOfUSD": 45000, "tradeCount": 6, "amountSharePct": 0.2}
		],
		"06": [
			{"countryCode": "US", "weight": 800, "quantity": 180, "sumOfUSD": 72000, "tradeCount": 10, "amountSharePct": 0.35}
		]
	}`)

	result, err := loader.LoadMonthlyStats(ctx, dataDir)
	if err != nil {
		t.Fatalf("LoadMonthlyStats failed: %v", err)
	}
	if result.Imported != 3 {
		t.Fatalf("expected 3 imported rows, got %d", result.Imported)
	}

	t.Run("StatsVisibleAfterImport", func(t *testing.T) {
		var rows []map[string]any
		getJSON(t, ts.URL+"/api/country-trade-stats?hs_code=854231", &rows)
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
	})

	t.Run("SummaryAggregates", func(t *testing.T) {
		var summary map[string]any
		getJSON(t, ts.URL+"/api/country-trade-stats/summary?hs_code=854231", &summary)
		if got := summary["total_trade_value"].(float64); got != 207000 {
			t.Errorf("expected total 207000, got %v", got)
		}
		if got := summary["total_countries"].(float64); got != 2 {
			t.Errorf("expected 2 countries, got %v", got)
		}
	})

	t.Run("TrendsAreMonthly", func(t *testing.T) {
		var rows []map[string]any
		getJSON(t, ts.URL+"/api/country-trade-stats/trends?hs_code=854231", &rows)
		if len(rows) != 2 {
			t.Fatalf("expected 2 trend buckets, got %d", len(rows))
		}
		if rows[0]["year_month"] != "2023-05" || rows[1]["year_month"] != "2023-06" {
			t.Errorf("expected ascending months, got %v then %v",
				rows[0]["year_month"], rows[1]["year_month"])
		}
	})

	t.Run("YearMonthWindow", func(t *testing.T) {
		var rows []map[string]any
		getJSON(t, ts.URL+"/api/country-trade-stats?start_year_month=2023-06", &rows)
		if len(rows) != 1 {
			t.Errorf("expected 1 row from June, got %d", len(rows))
		}
	})

	t.Run("MalformedWindowIsRejected", func(t *testing.T) {
		if status := getJSON(t, ts.URL+"/api/country-trade-stats?start_year_month=junk", nil); status != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", status)
		}
	})
}

func TestTransactionPipeline(t *testing.T) {
	ts, loader, repo := newPipeline(t)
	ctx := t.Context()

	if err := repo.SaveCategory(ctx, &domain.Category{
		ID: "semiconductors", Name: "semiconductors", DisplayName: "Semiconductors",
		Color: "#3b82f6", SortOrder: 1, IsActive: true,
	}); err != nil {
		t.Fatalf("SaveCategory failed: %v", err)
	}

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "synthetic_data.csv")
	writeFixture(t, csvPath,
		"id,material,category_name,exporter_company,exporter_country_code,exporter_country_name,exporter_city,importer_company,importer_country_code,importer_country_name,importer_city,quantity,unit,price,total_value,transaction_date,status\n"+
			"tx-1,DRAM,Semiconductors,Samsung Electronics,KR,South Korea,Suwon,Acme Corp,US,United States,Austin,100,pcs,5,500,2023-06-10,completed\n"+
			"tx-2,NAND,Semiconductors,Samsung Electronics,KR,South Korea,Suwon,Globex,DE,Germany,Berlin,50,pcs,8,400,2023-06-12,pending\n")

	result, err := loader.LoadTransactions(ctx, csvPath)
	if err != nil {
		t.Fatalf("LoadTransactions failed: %v", err)
	}
	if result.Transactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", result.Transactions)
	}

	t.Run("ListWithJoinedNames", func(t *testing.T) {
		var list struct {
			Transactions []map[string]any `json:"transactions"`
			Pagination   map[string]any   `json:"pagination"`
		}
		getJSON(t, ts.URL+"/api/transactions", &list)
		if len(list.Transactions) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(list.Transactions))
		}
		if list.Transactions[0]["category_name"] != "Semiconductors" {
			t.Errorf("expected joined category name, got %v", list.Transactions[0]["category_name"])
		}
	})

	t.Run("StatusFilter", func(t *testing.T) {
		var list struct {
			Pagination map[string]any `json:"pagination"`
		}
		getJSON(t, ts.URL+"/api/transactions?status=pending", &list)
		if got := list.Pagination["total"].(float64); got != 1 {
			t.Errorf("expected 1 pending transaction, got %v", got)
		}
	})

	t.Run("CompaniesCreatedBySide", func(t *testing.T) {
		var companies []map[string]any
		getJSON(t, ts.URL+"/api/companies", &companies)
		if len(companies) != 3 {
			t.Errorf("expected 3 companies, got %d", len(companies))
		}
	})

	t.Run("StatsEndpoint", func(t *testing.T) {
		var stats map[string]any
		getJSON(t, ts.URL+"/api/transactions/stats", &stats)
		if got := stats["total_value"].(float64); got != 900 {
			t.Errorf("expected total value 900, got %v", got)
		}
	})

	t.Run("ReloadConverges", func(t *testing.T) {
		if _, err := loader.LoadTransactions(ctx, csvPath); err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		var list struct {
			Pagination map[string]any `json:"pagination"`
		}
		getJSON(t, fmt.Sprintf("%s/api/transactions", ts.URL), &list)
		if got := list.Pagination["total"].(float64); got != 2 {
			t.Errorf("reload must not duplicate, got %v", got)
		}
	})
}
