package repository

import (
	"context"
	"strconv"

	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/query"
)

// Reporting reads. These tables are provisioned by the import CLI, so a
// missing relation degrades to an empty/default result; every other
// failure propagates.

// yearMonthLabel renders "YYYY-MM" from the integer year/month columns,
// portably across SQLite and PostgreSQL.
const yearMonthLabel = "CASE WHEN month < 10" +
	" THEN CAST(year AS TEXT) || '-0' || CAST(month AS TEXT)" +
	" ELSE CAST(year AS TEXT) || '-' || CAST(month AS TEXT) END"

// shipmentDate derives the back-compat "YYYY-MM-01" date string.
const shipmentDate = "(" + yearMonthLabel + " || '-01')"

func tradeStatConds(f domain.TradeStatFilter) ([]query.Cond, error) {
	conds := []query.Cond{
		query.InSet("hs_code", f.HSCodes),
		query.InSet("country_code", f.Countries),
		query.Equals("industry", f.Industry),
	}
	if f.Year > 0 {
		conds = append(conds, query.Equals("year", f.Year))
	}
	if f.Month > 0 {
		conds = append(conds, query.Equals("month", f.Month))
	}
	if f.StartYearMonth != "" {
		c, err := query.YearMonthFrom("year", "month", f.StartYearMonth)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if f.EndYearMonth != "" {
		c, err := query.YearMonthTo("year", "month", f.EndYearMonth)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// CountryTradeStats returns filtered country_monthly_trade_stats rows,
// most recent period first, largest value first within a period.
func (r *SQLRepository) CountryTradeStats(ctx context.Context, f domain.TradeStatFilter) ([]domain.Row, error) {
	conds, err := tradeStatConds(f)
	if err != nil {
		return nil, err
	}

	stmt, args := query.Render("SELECT * FROM country_monthly_trade_stats WHERE 1=1", conds...)
	stmt += " ORDER BY year DESC, month DESC, sum_of_usd DESC"
	if f.Limit <= 0 {
		f.Limit = 10000
	}
	stmt += " LIMIT " + strconv.Itoa(f.Limit)

	return r.queryRowsGuarded(ctx, stmt, args)
}

// CountryTradeStatsSummary reduces the filtered set to a single record.
// Sums are zero-coalesced so an empty set yields zeros, never nulls.
func (r *SQLRepository) CountryTradeStatsSummary(ctx context.Context, f domain.TradeStatFilter) (*domain.TradeStatSummary, error) {
	conds, err := tradeStatConds(f)
	if err != nil {
		return nil, err
	}

	stmt, args := query.Render(`
		SELECT
			COUNT(DISTINCT country_code),
			COALESCE(SUM(sum_of_usd), 0),
			COALESCE(SUM(weight), 0),
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(trade_count), 0),
			COALESCE(AVG(amount_share_pct), 0)
		FROM country_monthly_trade_stats
		WHERE 1=1`, conds...)

	var s domain.TradeStatSummary
	var weight, quantity float64
	err = r.db.QueryRowContext(ctx, r.rebind(stmt), args...).Scan(
		&s.TotalCountries, &s.TotalTradeValue, &weight, &quantity,
		&s.TotalTradeCount, &s.AvgSharePct,
	)
	if err != nil {
		if IsMissingRelation(err) {
			return &domain.TradeStatSummary{}, nil
		}
		return nil, err
	}

	s.TotalWeight = &weight
	s.TotalQuantity = &quantity
	return &s, nil
}

// CountryTradeTrends groups the filtered set by period, oldest first,
// for left-to-right time plotting.
func (r *SQLRepository) CountryTradeTrends(ctx context.Context, f domain.TrendFilter) ([]domain.Row, error) {
	conds := []query.Cond{
		query.Equals("hs_code", f.HSCode),
		query.Equals("country_code", f.Country),
		query.Equals("industry", f.Industry),
	}
	if f.StartYearMonth != "" {
		c, err := query.YearMonthFrom("year", "month", f.StartYearMonth)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if f.EndYearMonth != "" {
		c, err := query.YearMonthTo("year", "month", f.EndYearMonth)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}

	stmt, args := query.Render(`
		SELECT
			`+yearMonthLabel+` AS year_month,
			COALESCE(SUM(sum_of_usd), 0) AS sum_of_usd,
			COALESCE(SUM(weight), 0) AS weight,
			COALESCE(SUM(quantity), 0) AS quantity,
			COALESCE(SUM(trade_count), 0) AS trade_count
		FROM country_monthly_trade_stats
		WHERE 1=1`, conds...)
	stmt += " GROUP BY year, month ORDER BY year, month"

	return r.queryRowsGuarded(ctx, stmt, args)
}

// TopCountries ranks countries by summed USD value over the filtered
// set. Ties break on the store's default order.
func (r *SQLRepository) TopCountries(ctx context.Context, f domain.TopCountryFilter) ([]domain.Row, error) {
	conds := []query.Cond{
		query.Equals("hs_code", f.HSCode),
		query.Equals("industry", f.Industry),
	}
	if f.Year > 0 {
		conds = append(conds, query.Equals("year", f.Year))
	}
	if f.Month > 0 {
		conds = append(conds, query.Equals("month", f.Month))
	}

	stmt, args := query.Render(`
		SELECT
			country_code,
			COALESCE(SUM(sum_of_usd), 0) AS sum_of_usd,
			COALESCE(SUM(weight), 0) AS weight,
			COALESCE(SUM(quantity), 0) AS quantity,
			COALESCE(SUM(trade_count), 0) AS trade_count,
			COALESCE(AVG(amount_share_pct), 0) AS amount_share_pct
		FROM country_monthly_trade_stats
		WHERE 1=1`, conds...)
	if f.Limit <= 0 {
		f.Limit = 10
	}
	stmt += " GROUP BY country_code ORDER BY sum_of_usd DESC LIMIT " + strconv.Itoa(f.Limit)

	return r.queryRowsGuarded(ctx, stmt, args)
}

// Shipments serves the back-compat shipment listing from the
// country_origin_trade_stats table, joining country_locations for the
// display names and deriving a first-of-month date string.
func (r *SQLRepository) Shipments(ctx context.Context, f domain.ShipmentFilter) ([]domain.Row, error) {
	conds := []query.Cond{
		query.OrInSet("s.origin_country_code", "s.destination_country_code", f.Countries),
		query.HSCode("s.hs_code", f.HSCodes, f.HSCodePrefixes, f.HSCodeSuffixes),
	}
	dateExpr := "(CASE WHEN s.month < 10" +
		" THEN CAST(s.year AS TEXT) || '-0' || CAST(s.month AS TEXT)" +
		" ELSE CAST(s.year AS TEXT) || '-' || CAST(s.month AS TEXT) END || '-01')"
	if f.StartDate != "" {
		conds = append(conds, query.GTE(dateExpr, f.StartDate))
	}
	if f.EndDate != "" {
		conds = append(conds, query.LTE(dateExpr, f.EndDate))
	}

	stmt, args := query.Render(`
		SELECT
			s.year, s.month, s.hs_code, s.industry,
			s.origin_country_code, s.destination_country_code,
			s.weight, s.quantity,
			s.sum_of_usd AS total_value_usd,
			s.weight_avg_price, s.quantity_avg_price,
			s.trade_count, s.amount_share_pct,
			o.country_name AS country_of_origin,
			d.country_name AS destination_country,
			`+dateExpr+` AS date
		FROM country_origin_trade_stats s
		LEFT JOIN country_locations o ON o.country_code = s.origin_country_code
		LEFT JOIN country_locations d ON d.country_code = s.destination_country_code
		WHERE 1=1`, conds...)
	stmt += " ORDER BY s.year DESC, s.month DESC, s.sum_of_usd DESC"
	if f.Limit <= 0 {
		f.Limit = 10000
	}
	stmt += " LIMIT " + strconv.Itoa(f.Limit)

	return r.queryRowsGuarded(ctx, stmt, args)
}

// MonthlyCompanyFlows returns filtered flow aggregates, most recent
// period first. The category filter traverses the HS-chapter mapping.
func (r *SQLRepository) MonthlyCompanyFlows(ctx context.Context, f domain.FlowFilter) ([]domain.Row, error) {
	conds := []query.Cond{
		query.OrInSet("m.origin_country", "m.destination_country", f.Countries),
		query.OrInSet("m.exporter_name", "m.importer_name", f.Companies),
		query.CategoryInSet("m.hs_codes", f.CategoryIDs),
	}
	// year_month is stored as a "YYYY-MM" string, so the bounds compare
	// lexicographically.
	if f.StartYearMonth != "" {
		conds = append(conds, query.GTE("m.year_month", f.StartYearMonth))
	}
	if f.EndYearMonth != "" {
		conds = append(conds, query.LTE("m.year_month", f.EndYearMonth))
	}

	stmt, args := query.Render("SELECT m.* FROM monthly_company_flows m WHERE 1=1", conds...)
	stmt += " ORDER BY m.year_month DESC, m.total_value_usd DESC"

	return r.queryRowsGuarded(ctx, stmt, args)
}

// HSCodeCategories returns the HS-chapter category mapping.
func (r *SQLRepository) HSCodeCategories(ctx context.Context) ([]domain.Row, error) {
	return r.queryRowsGuarded(ctx,
		"SELECT hs_code, chapter_name, category_id FROM hs_code_categories ORDER BY hs_code", nil)
}

// CountryLocations returns the country geocoding reference rows.
func (r *SQLRepository) CountryLocations(ctx context.Context) ([]domain.Row, error) {
	return r.queryRowsGuarded(ctx,
		"SELECT country_code, country_name, latitude, longitude, region, continent FROM country_locations ORDER BY country_name", nil)
}

// PortLocations returns the port geocoding reference rows.
func (r *SQLRepository) PortLocations(ctx context.Context) ([]domain.Row, error) {
	return r.queryRowsGuarded(ctx,
		"SELECT port_name, country_code, country_name, latitude, longitude, region, continent FROM port_locations ORDER BY country_name, port_name", nil)
}

// CountryLocationsFromPorts derives unique country rows from the port
// table, kept for compatibility with clients of the older endpoint.
func (r *SQLRepository) CountryLocationsFromPorts(ctx context.Context) ([]domain.Row, error) {
	return r.queryRowsGuarded(ctx, `
		SELECT country_code, country_name, latitude, longitude, region, continent
		FROM port_locations
		GROUP BY country_code, country_name, latitude, longitude, region, continent
		ORDER BY country_name`, nil)
}

// queryRowsGuarded executes a reporting read and maps the result set,
// substituting an empty result when the relation is missing.
func (r *SQLRepository) queryRowsGuarded(ctx context.Context, stmt string, args []any) ([]domain.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(stmt), args...)
	if err != nil {
		if IsMissingRelation(err) {
			return []domain.Row{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Row{}
	}
	return out, nil
}
