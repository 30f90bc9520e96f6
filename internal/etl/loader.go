package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/supplylens/supplylens/internal/domain"
)

// DefaultBatchSize is the upsert buffer size used when none is given.
const DefaultBatchSize = 1000

// originSubdir holds the per-month origin-destination JSON files inside
// each industry directory.
const originSubdir = "CountryOfOrigin"

// Result summarizes one load run.
type Result struct {
	Files    int
	Imported int
	Filtered int
}

// Loader imports data files into the repository in batches.
type Loader struct {
	repo      domain.Repository
	batchSize int
	log       zerolog.Logger
}

// NewLoader creates a loader writing through repo.
func NewLoader(repo domain.Repository, batchSize int, log zerolog.Logger) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{repo: repo, batchSize: batchSize, log: log}
}

// statRecord is one entry of the pre-aggregated JSON files.
type statRecord struct {
	CountryCode      string   `json:"countryCode"`
	Weight           *float64 `json:"weight"`
	Quantity         *float64 `json:"quantity"`
	SumOfUSD         *float64 `json:"sumOfUSD"`
	WeightAvgPrice   *float64 `json:"weightAvgPrice"`
	QuantityAvgPrice *float64 `json:"quantityAvgPrice"`
	TradeCount       *float64 `json:"tradeCount"`
	AmountSharePct   float64  `json:"amountSharePct"`
}

func (s *statRecord) tradeCount() *int {
	if s.TradeCount == nil || *s.TradeCount == 0 {
		return nil
	}
	n := int(*s.TradeCount)
	return &n
}

// LoadMonthlyStats imports country_monthly_trade_stats from
// <dataDir>/<industry>/<hs>_<year>.json files.
func (l *Loader) LoadMonthlyStats(ctx context.Context, dataDir string) (*Result, error) {
	if err := l.repo.EnsureReportingSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	result := &Result{}
	batch := make([]*domain.CountryMonthlyTradeStat, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.repo.UpsertMonthlyStats(ctx, batch)
		result.Imported += n
		batch = batch[:0]
		return err
	}

	industries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	for _, industry := range industries {
		if !industry.IsDir() {
			continue
		}
		dir := filepath.Join(dataDir, industry.Name())

		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}

			stats, filtered, err := ParseMonthlyFile(filepath.Join(dir, f.Name()), industry.Name())
			if err != nil {
				l.log.Warn().Str("file", f.Name()).Err(err).Msg("skipping file")
				continue
			}
			result.Files++
			result.Filtered += filtered

			for _, s := range stats {
				batch = append(batch, s)
				if len(batch) >= l.batchSize {
					if err := flush(); err != nil {
						return result, err
					}
				}
			}

			l.log.Info().Str("file", f.Name()).Int("records", len(stats)).
				Int("filtered", filtered).Msg("parsed monthly stats")
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

// ParseMonthlyFile parses one <hs>_<year>.json file: a map of
// zero-padded month to per-country stat list. Records without a usable
// country code are dropped and counted.
func ParseMonthlyFile(path, industry string) ([]*domain.CountryMonthlyTradeStat, int, error) {
	hsCode, year, _, err := parseStatFileName(path, 2)
	if err != nil {
		return nil, 0, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	var months map[string][]statRecord
	if err := json.Unmarshal(raw, &months); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON in %s: %w", filepath.Base(path), err)
	}

	var stats []*domain.CountryMonthlyTradeStat
	filtered := 0

	for monthStr, countries := range months {
		month, err := strconv.Atoi(monthStr)
		if err != nil || len(monthStr) != 2 {
			continue
		}

		for _, rec := range countries {
			if rec.CountryCode == "" || rec.CountryCode == "N/A" {
				filtered++
				continue
			}

			stats = append(stats, &domain.CountryMonthlyTradeStat{
				ID:               fmt.Sprintf("%s_%d_%02d_%s", hsCode, year, month, rec.CountryCode),
				HSCode:           hsCode,
				Year:             year,
				Month:            month,
				CountryCode:      rec.CountryCode,
				Industry:         industry,
				Weight:           rec.Weight,
				Quantity:         rec.Quantity,
				SumOfUSD:         rec.SumOfUSD,
				WeightAvgPrice:   rec.WeightAvgPrice,
				QuantityAvgPrice: rec.QuantityAvgPrice,
				TradeCount:       rec.tradeCount(),
				AmountSharePct:   rec.AmountSharePct,
			})
		}
	}
	return stats, filtered, nil
}

// LoadOriginStats imports country_origin_trade_stats from
// <dataDir>/<industry>/CountryOfOrigin/<hs>_<year>_<month>.json files.
func (l *Loader) LoadOriginStats(ctx context.Context, dataDir string) (*Result, error) {
	if err := l.repo.EnsureReportingSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	result := &Result{}
	batch := make([]*domain.CountryOriginTradeStat, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := l.repo.UpsertOriginStats(ctx, batch)
		result.Imported += n
		batch = batch[:0]
		return err
	}

	industries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	for _, industry := range industries {
		if !industry.IsDir() {
			continue
		}
		dir := filepath.Join(dataDir, industry.Name(), originSubdir)

		files, err := os.ReadDir(dir)
		if err != nil {
			// Not every industry ships origin-destination data.
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}

			stats, filtered, err := ParseOriginFile(filepath.Join(dir, f.Name()), industry.Name())
			if err != nil {
				l.log.Warn().Str("file", f.Name()).Err(err).Msg("skipping file")
				continue
			}
			result.Files++
			result.Filtered += filtered

			for _, s := range stats {
				batch = append(batch, s)
				if len(batch) >= l.batchSize {
					if err := flush(); err != nil {
						return result, err
					}
				}
			}

			l.log.Info().Str("file", f.Name()).Int("records", len(stats)).
				Int("filtered", filtered).Msg("parsed origin stats")
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

// ParseOriginFile parses one <hs>_<year>_<month>.json file: origin
// country to destination country to stat list. Zero-weight,
// zero-quantity and "N/A" records are dropped and counted; "N/A"
// origin or destination keys are skipped entirely.
func ParseOriginFile(path, industry string) ([]*domain.CountryOriginTradeStat, int, error) {
	hsCode, year, month, err := parseStatFileName(path, 3)
	if err != nil {
		return nil, 0, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	var origins map[string]map[string][]statRecord
	if err := json.Unmarshal(raw, &origins); err != nil {
		return nil, 0, fmt.Errorf("invalid JSON in %s: %w", filepath.Base(path), err)
	}

	var stats []*domain.CountryOriginTradeStat
	filtered := 0

	for origin, destinations := range origins {
		if origin == "N/A" {
			continue
		}
		for dest, records := range destinations {
			if dest == "N/A" {
				continue
			}
			for _, rec := range records {
				if isInvalidOriginRecord(&rec) {
					filtered++
					continue
				}

				stats = append(stats, &domain.CountryOriginTradeStat{
					ID:                     fmt.Sprintf("%s_%d_%02d_%s_%s", hsCode, year, month, origin, dest),
					HSCode:                 hsCode,
					Year:                   year,
					Month:                  month,
					OriginCountryCode:      origin,
					DestinationCountryCode: dest,
					Industry:               industry,
					Weight:                 rec.Weight,
					Quantity:               rec.Quantity,
					SumOfUSD:               rec.SumOfUSD,
					WeightAvgPrice:         rec.WeightAvgPrice,
					QuantityAvgPrice:       rec.QuantityAvgPrice,
					TradeCount:             rec.tradeCount(),
					AmountSharePct:         rec.AmountSharePct,
				})
			}
		}
	}
	return stats, filtered, nil
}

// isInvalidOriginRecord reports whether a record fails the validity
// filter: zero weight, zero quantity or an unusable country code.
func isInvalidOriginRecord(rec *statRecord) bool {
	if rec.Weight == nil || *rec.Weight == 0 {
		return true
	}
	if rec.Quantity == nil || *rec.Quantity == 0 {
		return true
	}
	return rec.CountryCode == "N/A"
}

// parseStatFileName splits <hs>_<year>[_<month>].json into its parts.
func parseStatFileName(path string, want int) (hsCode string, year, month int, err error) {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	parts := strings.Split(name, "_")
	if len(parts) < want {
		return "", 0, 0, fmt.Errorf("unexpected file name %q", filepath.Base(path))
	}

	hsCode = parts[0]
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("unexpected year in file name %q", filepath.Base(path))
	}
	if want >= 3 {
		month, err = strconv.Atoi(parts[2])
		if err != nil {
			return "", 0, 0, fmt.Errorf("unexpected month in file name %q", filepath.Base(path))
		}
	}
	return hsCode, year, month, nil
}
