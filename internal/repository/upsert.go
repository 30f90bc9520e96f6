package repository

import (
	"context"
	"strings"

	"github.com/supplylens/supplylens/internal/domain"
)

// Idempotent batch upserts for the reporting fact tables. Each batch is
// one multi-row INSERT with a natural-key conflict target; when the
// batch statement fails, rows are retried one at a time so a single bad
// record cannot sink the whole batch. The returned count is the number
// of rows applied.

func valuesClause(rows, cols int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", cols), ", ") + ")"
	return strings.TrimSuffix(strings.Repeat(row+", ", rows), ", ")
}

// upsertBatch executes the multi-row statement, falling back to
// per-row statements on failure. args holds cols values per row.
func (r *SQLRepository) upsertBatch(ctx context.Context, stmtFor func(rows int) string, args []any, cols int) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	rows := len(args) / cols

	if _, err := r.db.ExecContext(ctx, r.rebind(stmtFor(rows)), args...); err == nil {
		return rows, nil
	}

	single := r.rebind(stmtFor(1))
	applied := 0
	var lastErr error
	for i := 0; i < rows; i++ {
		rowArgs := args[i*cols : (i+1)*cols]
		if _, err := r.db.ExecContext(ctx, single, rowArgs...); err != nil {
			lastErr = err
			continue
		}
		applied++
	}
	if applied == 0 && lastErr != nil {
		return 0, lastErr
	}
	return applied, nil
}

func fptr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func iptr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// UpsertMonthlyStats applies country_monthly_trade_stats rows keyed by
// (hs_code, year, month, country_code).
func (r *SQLRepository) UpsertMonthlyStats(ctx context.Context, stats []*domain.CountryMonthlyTradeStat) (int, error) {
	const cols = 13
	stmtFor := func(rows int) string {
		return `
			INSERT INTO country_monthly_trade_stats (
				id, hs_code, year, month, country_code, industry,
				weight, quantity, sum_of_usd, weight_avg_price,
				quantity_avg_price, trade_count, amount_share_pct
			) VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (hs_code, year, month, country_code) DO UPDATE SET
				industry = excluded.industry,
				weight = excluded.weight,
				quantity = excluded.quantity,
				sum_of_usd = excluded.sum_of_usd,
				weight_avg_price = excluded.weight_avg_price,
				quantity_avg_price = excluded.quantity_avg_price,
				trade_count = excluded.trade_count,
				amount_share_pct = excluded.amount_share_pct,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	var args []any
	for _, s := range stats {
		args = append(args,
			s.ID, s.HSCode, s.Year, s.Month, s.CountryCode, nullable(s.Industry),
			fptr(s.Weight), fptr(s.Quantity), fptr(s.SumOfUSD), fptr(s.WeightAvgPrice),
			fptr(s.QuantityAvgPrice), iptr(s.TradeCount), s.AmountSharePct,
		)
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}

// UpsertOriginStats applies country_origin_trade_stats rows keyed by
// (hs_code, year, month, origin_country_code, destination_country_code).
func (r *SQLRepository) UpsertOriginStats(ctx context.Context, stats []*domain.CountryOriginTradeStat) (int, error) {
	const cols = 14
	stmtFor := func(rows int) string {
		return `
			INSERT INTO country_origin_trade_stats (
				id, hs_code, year, month, origin_country_code, destination_country_code,
				industry, weight, quantity, sum_of_usd, weight_avg_price,
				quantity_avg_price, trade_count, amount_share_pct
			) VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (hs_code, year, month, origin_country_code, destination_country_code) DO UPDATE SET
				industry = excluded.industry,
				weight = excluded.weight,
				quantity = excluded.quantity,
				sum_of_usd = excluded.sum_of_usd,
				weight_avg_price = excluded.weight_avg_price,
				quantity_avg_price = excluded.quantity_avg_price,
				trade_count = excluded.trade_count,
				amount_share_pct = excluded.amount_share_pct,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	var args []any
	for _, s := range stats {
		args = append(args,
			s.ID, s.HSCode, s.Year, s.Month, s.OriginCountryCode, s.DestinationCountryCode,
			nullable(s.Industry), fptr(s.Weight), fptr(s.Quantity), fptr(s.SumOfUSD),
			fptr(s.WeightAvgPrice), fptr(s.QuantityAvgPrice), iptr(s.TradeCount), s.AmountSharePct,
		)
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}

// UpsertCompanyFlows applies monthly_company_flows rows keyed by
// (year_month, exporter_name, importer_name).
func (r *SQLRepository) UpsertCompanyFlows(ctx context.Context, flows []*domain.MonthlyCompanyFlow) (int, error) {
	const cols = 14
	stmtFor := func(rows int) string {
		return `
			INSERT INTO monthly_company_flows (
				year_month, exporter_name, importer_name, origin_country, destination_country,
				hs_codes, transport_mode, trade_term, transaction_count, total_value_usd,
				total_weight_kg, total_quantity, first_transaction_date, last_transaction_date
			) VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (year_month, exporter_name, importer_name) DO UPDATE SET
				origin_country = excluded.origin_country,
				destination_country = excluded.destination_country,
				hs_codes = excluded.hs_codes,
				transport_mode = excluded.transport_mode,
				trade_term = excluded.trade_term,
				transaction_count = excluded.transaction_count,
				total_value_usd = excluded.total_value_usd,
				total_weight_kg = excluded.total_weight_kg,
				total_quantity = excluded.total_quantity,
				first_transaction_date = excluded.first_transaction_date,
				last_transaction_date = excluded.last_transaction_date
		`
	}

	var args []any
	for _, f := range flows {
		args = append(args,
			f.YearMonth, f.ExporterName, f.ImporterName, nullable(f.OriginCountry), f.DestinationCountry,
			nullable(f.HSCodes), nullable(f.TransportMode), nullable(f.TradeTerm), f.TransactionCount,
			fptr(f.TotalValueUSD), fptr(f.TotalWeightKg), fptr(f.TotalQuantity),
			nullable(f.FirstTransactionDate), nullable(f.LastTransactionDate),
		)
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}

// UpsertHSCodeCategories applies HS-chapter mapping rows keyed by hs_code.
func (r *SQLRepository) UpsertHSCodeCategories(ctx context.Context, cats []*domain.HSCodeCategory) (int, error) {
	const cols = 3
	stmtFor := func(rows int) string {
		return `
			INSERT INTO hs_code_categories (hs_code, chapter_name, category_id)
			VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (hs_code) DO UPDATE SET
				chapter_name = excluded.chapter_name,
				category_id = excluded.category_id,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	var args []any
	for _, c := range cats {
		args = append(args, c.HSCode, c.ChapterName, nullable(c.CategoryID))
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}

// UpsertCountryLocations applies country geocoding rows keyed by
// country_code.
func (r *SQLRepository) UpsertCountryLocations(ctx context.Context, locs []*domain.CountryLocation) (int, error) {
	const cols = 6
	stmtFor := func(rows int) string {
		return `
			INSERT INTO country_locations (country_code, country_name, latitude, longitude, region, continent)
			VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (country_code) DO UPDATE SET
				country_name = excluded.country_name,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				region = excluded.region,
				continent = excluded.continent,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	var args []any
	for _, l := range locs {
		args = append(args,
			l.CountryCode, l.CountryName, l.Latitude, l.Longitude,
			nullable(l.Region), nullable(l.Continent),
		)
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}

// UpsertPortLocations applies port geocoding rows keyed by port_name.
func (r *SQLRepository) UpsertPortLocations(ctx context.Context, ports []*domain.PortLocation) (int, error) {
	const cols = 7
	stmtFor := func(rows int) string {
		return `
			INSERT INTO port_locations (port_name, country_code, country_name, latitude, longitude, region, continent)
			VALUES ` + valuesClause(rows, cols) + `
			ON CONFLICT (port_name) DO UPDATE SET
				country_code = excluded.country_code,
				country_name = excluded.country_name,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				region = excluded.region,
				continent = excluded.continent,
				updated_at = CURRENT_TIMESTAMP
		`
	}

	var args []any
	for _, p := range ports {
		args = append(args,
			p.PortName, p.CountryCode, p.CountryName, p.Latitude, p.Longitude,
			nullable(p.Region), nullable(p.Continent),
		)
	}
	return r.upsertBatch(ctx, stmtFor, args, cols)
}
