package repository

import (
	"context"
	"database/sql"

	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/query"
)

// listConds maps a TransactionFilter onto predicate fragments for the
// paginated listing. The origin-country filter matches either side of
// the route.
func listConds(f domain.TransactionFilter) []query.Cond {
	conds := []query.Cond{
		query.OrInSet("t.origin_country_code", "t.destination_country_code", f.OriginCountries),
		query.Equals("t.destination_country_code", f.DestinationCountry),
		query.InSet("t.category_id", f.CategoryIDs),
		query.OrEquals("t.exporter_company_id", "t.importer_company_id", f.CompanyID),
		query.InSet("t.status", f.Statuses),
	}
	if f.StartDate != "" {
		conds = append(conds, query.GTE("t.transaction_date", f.StartDate))
	}
	if f.EndDate != "" {
		conds = append(conds, query.LTE("t.transaction_date", f.EndDate))
	}
	if f.MinValue != nil {
		conds = append(conds, query.GTE("t.total_value", *f.MinValue))
	}
	if f.MaxValue != nil {
		conds = append(conds, query.LTE("t.total_value", *f.MaxValue))
	}
	return conds
}

// statsConds is the scalar-equality variant used by the stats endpoint:
// the origin filter applies to the origin side only.
func statsConds(f domain.TransactionFilter) []query.Cond {
	conds := []query.Cond{
		query.InSet("t.origin_country_code", f.OriginCountries),
		query.Equals("t.destination_country_code", f.DestinationCountry),
		query.InSet("t.category_id", f.CategoryIDs),
		query.OrEquals("t.exporter_company_id", "t.importer_company_id", f.CompanyID),
		query.InSet("t.status", f.Statuses),
	}
	if f.StartDate != "" {
		conds = append(conds, query.GTE("t.transaction_date", f.StartDate))
	}
	if f.EndDate != "" {
		conds = append(conds, query.LTE("t.transaction_date", f.EndDate))
	}
	if f.MinValue != nil {
		conds = append(conds, query.GTE("t.total_value", *f.MinValue))
	}
	if f.MaxValue != nil {
		conds = append(conds, query.LTE("t.total_value", *f.MaxValue))
	}
	return conds
}

// ListTransactions returns one page of transactions joined with their
// category and company display fields, most recent first.
func (r *SQLRepository) ListTransactions(ctx context.Context, f domain.TransactionFilter) (*domain.TransactionList, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 1000 {
		f.Limit = 100
	}

	conds := listConds(f)

	countSQL, countArgs := query.Render("SELECT COUNT(*) FROM transactions t WHERE 1=1", conds...)
	var total int
	if err := r.db.QueryRowContext(ctx, r.rebind(countSQL), countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	base := `
		SELECT t.id, t.exporter_company_id, e.name, t.origin_country_code, t.origin_country_name,
		       t.importer_company_id, i.name, t.destination_country_code, t.destination_country_name,
		       t.material, t.category_id, c.display_name, c.color,
		       t.quantity, t.unit, t.price, t.total_value, t.transaction_date, t.status, t.notes
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		LEFT JOIN companies e ON e.id = t.exporter_company_id
		LEFT JOIN companies i ON i.id = t.importer_company_id
		WHERE 1=1`
	listSQL, args := query.Render(base, conds...)
	listSQL += " ORDER BY t.transaction_date DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, r.rebind(listSQL), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*domain.TransactionDetail
	for rows.Next() {
		var d domain.TransactionDetail
		var exporterID, exporterName, importerID, importerName sql.NullString
		var originName, destName, material, unit, notes sql.NullString

		if err := rows.Scan(
			&d.ID, &exporterID, &exporterName, &d.ExporterCountryCode, &originName,
			&importerID, &importerName, &d.ImporterCountryCode, &destName,
			&material, &d.CategoryID, &d.CategoryName, &d.CategoryColor,
			&d.Quantity, &unit, &d.Price, &d.TotalValue, &d.TransactionDate, &d.Status, &notes,
		); err != nil {
			return nil, err
		}

		if exporterID.Valid {
			d.ExporterCompanyID = &exporterID.String
		}
		if exporterName.Valid {
			d.ExporterCompanyName = &exporterName.String
		}
		if importerID.Valid {
			d.ImporterCompanyID = &importerID.String
		}
		if importerName.Valid {
			d.ImporterCompanyName = &importerName.String
		}
		d.ExporterCountryName = originName.String
		d.ImporterCountryName = destName.String
		d.Material = material.String
		d.Unit = unit.String
		d.Notes = notes.String
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}

	return &domain.TransactionList{
		Transactions: details,
		Pagination: domain.Pagination{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: totalPages,
		},
	}, nil
}

// TransactionStats computes the aggregate view over the filtered set.
// The category breakdown spans all transactions regardless of filters,
// matching the listing API's historical behavior; top routes honor the
// filter.
func (r *SQLRepository) TransactionStats(ctx context.Context, f domain.TransactionFilter) (*domain.TransactionStats, error) {
	conds := statsConds(f)

	totalsSQL, args := query.Render(
		"SELECT COUNT(*), COALESCE(SUM(t.total_value), 0) FROM transactions t WHERE 1=1", conds...)

	stats := &domain.TransactionStats{
		CategoryBreakdown: []domain.CategoryBreakdown{},
		TopRoutes:         []domain.TopRoute{},
	}
	if err := r.db.QueryRowContext(ctx, r.rebind(totalsSQL), args...).Scan(
		&stats.TotalTransactions, &stats.TotalValue,
	); err != nil {
		return nil, err
	}

	countries, err := r.countDistinctUnion(ctx,
		"t.origin_country_code", "t.destination_country_code", conds, false)
	if err != nil {
		return nil, err
	}
	stats.ActiveCountries = countries

	companies, err := r.countDistinctUnion(ctx,
		"t.exporter_company_id", "t.importer_company_id", conds, true)
	if err != nil {
		return nil, err
	}
	stats.ActiveCompanies = companies

	breakdownSQL := `
		SELECT c.id, c.display_name, COUNT(t.id), COALESCE(SUM(t.total_value), 0)
		FROM categories c
		JOIN transactions t ON c.id = t.category_id
		GROUP BY c.id, c.display_name
	`
	rows, err := r.db.QueryContext(ctx, breakdownSQL)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var b domain.CategoryBreakdown
		if err := rows.Scan(&b.CategoryID, &b.CategoryName, &b.Count, &b.TotalValue); err != nil {
			rows.Close()
			return nil, err
		}
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	routesSQL, routeArgs := query.Render(`
		SELECT t.origin_country_code, t.destination_country_code,
		       COUNT(t.id), COALESCE(SUM(t.total_value), 0)
		FROM transactions t
		WHERE 1=1`, conds...)
	routesSQL += " GROUP BY t.origin_country_code, t.destination_country_code ORDER BY SUM(t.total_value) DESC LIMIT 10"

	rows, err = r.db.QueryContext(ctx, r.rebind(routesSQL), routeArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.TopRoute
		if err := rows.Scan(&t.OriginCountry, &t.DestinationCountry, &t.TransactionCount, &t.TotalValue); err != nil {
			return nil, err
		}
		stats.TopRoutes = append(stats.TopRoutes, t)
	}
	return stats, rows.Err()
}

// countDistinctUnion counts the distinct values appearing in either of
// two columns of the filtered set. UNION deduplicates across sides.
func (r *SQLRepository) countDistinctUnion(ctx context.Context, colA, colB string, conds []query.Cond, skipNull bool) (int, error) {
	sideA, argsA := query.Render("SELECT "+colA+" AS v FROM transactions t WHERE 1=1", conds...)
	sideB, argsB := query.Render("SELECT "+colB+" AS v FROM transactions t WHERE 1=1", conds...)
	if skipNull {
		sideA += " AND " + colA + " IS NOT NULL"
		sideB += " AND " + colB + " IS NOT NULL"
	}

	stmt := "SELECT COUNT(*) FROM (" + sideA + " UNION " + sideB + ") u"
	args := append(argsA, argsB...)

	var n int
	if err := r.db.QueryRowContext(ctx, r.rebind(stmt), args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
