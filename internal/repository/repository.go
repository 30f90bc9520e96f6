// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supplylens/supplylens/internal/domain"
)

var (
	ErrNotFound     = domain.ErrNotFound
	ErrInvalidInput = domain.ErrInvalidInput
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration and migrates the
// core tables. Reporting tables are left to the import CLI.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range CoreSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// EnsureReportingSchema provisions the reporting fact tables. Called by
// the import CLI before loading.
func (r *SQLRepository) EnsureReportingSchema(ctx context.Context) error {
	for _, schema := range ReportingSchemas() {
		if _, err := r.db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

// ClearTables deletes all rows from the named tables.
func (r *SQLRepository) ClearTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// ListCategories returns categories ordered by sort_order.
func (r *SQLRepository) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	query := `
		SELECT id, name, display_name, color, icon, description, sort_order, is_active
		FROM categories
		WHERE 1=1
	`
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY sort_order"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory retrieves a category by ID.
func (r *SQLRepository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	query := `
		SELECT id, name, display_name, color, icon, description, sort_order, is_active
		FROM categories
		WHERE id = ?
	`

	var c domain.Category
	var icon, description sql.NullString
	var active int

	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&c.ID, &c.Name, &c.DisplayName, &c.Color,
		&icon, &description, &c.SortOrder, &active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Icon = icon.String
	c.Description = description.String
	c.IsActive = active == 1
	return &c, nil
}

func scanCategory(rows *sql.Rows) (*domain.Category, error) {
	var c domain.Category
	var icon, description sql.NullString
	var active int

	if err := rows.Scan(
		&c.ID, &c.Name, &c.DisplayName, &c.Color,
		&icon, &description, &c.SortOrder, &active,
	); err != nil {
		return nil, err
	}

	c.Icon = icon.String
	c.Description = description.String
	c.IsActive = active == 1
	return &c, nil
}

// ListCompanies returns companies matching the filter, ordered by name.
func (r *SQLRepository) ListCompanies(ctx context.Context, f domain.CompanyFilter) ([]*domain.Company, error) {
	query := `
		SELECT id, name, country_code, country_name, city, type, industry, website
		FROM companies
		WHERE 1=1
	`
	var args []any
	if f.CountryCode != "" {
		query += " AND country_code = ?"
		args = append(args, f.CountryCode)
	}
	if f.City != "" {
		query += " AND city = ?"
		args = append(args, f.City)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Search != "" {
		query += " AND LOWER(name) LIKE LOWER(?)"
		args = append(args, "%"+f.Search+"%")
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetCompany retrieves a company by ID.
func (r *SQLRepository) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, name, country_code, country_name, city, type, industry, website
		FROM companies
		WHERE id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), id)
	c, err := scanCompanyRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func scanCompany(rows *sql.Rows) (*domain.Company, error) {
	var c domain.Company
	var countryName, city, industry, website sql.NullString
	if err := rows.Scan(
		&c.ID, &c.Name, &c.CountryCode, &countryName,
		&city, &c.Type, &industry, &website,
	); err != nil {
		return nil, err
	}
	c.CountryName = countryName.String
	c.City = city.String
	c.Industry = industry.String
	c.Website = website.String
	return &c, nil
}

func scanCompanyRow(row *sql.Row) (*domain.Company, error) {
	var c domain.Company
	var countryName, city, industry, website sql.NullString
	if err := row.Scan(
		&c.ID, &c.Name, &c.CountryCode, &countryName,
		&city, &c.Type, &industry, &website,
	); err != nil {
		return nil, err
	}
	c.CountryName = countryName.String
	c.City = city.String
	c.Industry = industry.String
	c.Website = website.String
	return &c, nil
}

// ListCompaniesWithLocations joins each company to its best-available
// location: the city row when present, the country row otherwise.
// Companies with no location at either level are dropped.
func (r *SQLRepository) ListCompaniesWithLocations(ctx context.Context, f domain.CompanyFilter) ([]*domain.CompanyWithLocation, error) {
	companies, err := r.ListCompanies(ctx, f)
	if err != nil {
		return nil, err
	}

	cityLocs, countryLocs, err := r.locationIndex(ctx)
	if err != nil {
		return nil, err
	}

	var out []*domain.CompanyWithLocation
	for _, c := range companies {
		loc, ok := cityLocs[c.CountryCode+"\x00"+c.City]
		if !ok {
			loc, ok = countryLocs[c.CountryCode]
		}
		if !ok {
			continue
		}
		out = append(out, &domain.CompanyWithLocation{
			Company:   *c,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Region:    loc.Region,
			Continent: loc.Continent,
		})
	}
	return out, nil
}

// GetCompanyWithLocation retrieves a company and resolves its location
// with the city-then-country fallback, 404 when neither level exists.
func (r *SQLRepository) GetCompanyWithLocation(ctx context.Context, id string) (*domain.CompanyWithLocation, error) {
	c, err := r.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	loc, err := r.GetCityLocation(ctx, c.CountryCode, c.City)
	if err != nil {
		return nil, err
	}

	return &domain.CompanyWithLocation{
		Company:   *c,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Region:    loc.Region,
		Continent: loc.Continent,
	}, nil
}

// locationIndex loads all locations into lookup maps keyed by
// country+city (city rows) and country code (country rows).
func (r *SQLRepository) locationIndex(ctx context.Context) (map[string]*domain.Location, map[string]*domain.Location, error) {
	all, err := r.ListLocations(ctx, domain.LocationFilter{})
	if err != nil {
		return nil, nil, err
	}

	cities := make(map[string]*domain.Location)
	countries := make(map[string]*domain.Location)
	for _, l := range all {
		switch l.Type {
		case "city":
			if l.City != nil {
				cities[l.CountryCode+"\x00"+*l.City] = l
			}
		case "country":
			countries[l.CountryCode] = l
		}
	}
	return cities, countries, nil
}

// ListLocations returns locations matching the filter, ordered by
// country name then city.
func (r *SQLRepository) ListLocations(ctx context.Context, f domain.LocationFilter) ([]*domain.Location, error) {
	query := `
		SELECT id, type, country_code, country_name, city, latitude, longitude, region, continent, address
		FROM locations
		WHERE 1=1
	`
	var args []any
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.CountryCode != "" {
		query += " AND country_code = ?"
		args = append(args, f.CountryCode)
	}
	query += " ORDER BY country_name, city"

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		var l domain.Location
		var city, region, continent, address sql.NullString
		if err := rows.Scan(
			&l.ID, &l.Type, &l.CountryCode, &l.CountryName,
			&city, &l.Latitude, &l.Longitude, &region, &continent, &address,
		); err != nil {
			return nil, err
		}
		if city.Valid {
			l.City = &city.String
		}
		l.Region = region.String
		l.Continent = continent.String
		l.Address = address.String
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}

// GetLocation retrieves a location by ID.
func (r *SQLRepository) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	query := `
		SELECT id, type, country_code, country_name, city, latitude, longitude, region, continent, address
		FROM locations
		WHERE id = ?
	`

	var l domain.Location
	var city, region, continent, address sql.NullString
	err := r.db.QueryRowContext(ctx, r.rebind(query), id).Scan(
		&l.ID, &l.Type, &l.CountryCode, &l.CountryName,
		&city, &l.Latitude, &l.Longitude, &region, &continent, &address,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if city.Valid {
		l.City = &city.String
	}
	l.Region = region.String
	l.Continent = continent.String
	l.Address = address.String
	return &l, nil
}

// GetCityLocation resolves (countryCode, city) to a location: the city
// row when present, the country row as fallback, ErrNotFound otherwise.
func (r *SQLRepository) GetCityLocation(ctx context.Context, countryCode, city string) (*domain.Location, error) {
	if city != "" {
		locs, err := r.ListLocations(ctx, domain.LocationFilter{Type: "city", CountryCode: countryCode})
		if err != nil {
			return nil, err
		}
		for _, l := range locs {
			if l.City != nil && *l.City == city {
				return l, nil
			}
		}
	}

	locs, err := r.ListLocations(ctx, domain.LocationFilter{Type: "country", CountryCode: countryCode})
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, ErrNotFound
	}
	return locs[0], nil
}

// SaveCategory upserts a category by ID.
func (r *SQLRepository) SaveCategory(ctx context.Context, c *domain.Category) error {
	active := 0
	if c.IsActive {
		active = 1
	}

	query := `
		INSERT INTO categories (id, name, display_name, color, icon, description, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			display_name = excluded.display_name,
			color = excluded.color,
			icon = excluded.icon,
			description = excluded.description,
			sort_order = excluded.sort_order,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, c.Name, c.DisplayName, c.Color,
		nullable(c.Icon), nullable(c.Description), c.SortOrder, active,
	)
	return err
}

// SaveCompany upserts a company by ID.
func (r *SQLRepository) SaveCompany(ctx context.Context, c *domain.Company) error {
	query := `
		INSERT INTO companies (id, name, country_code, country_name, city, type, industry, website)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			country_code = excluded.country_code,
			country_name = excluded.country_name,
			city = excluded.city,
			type = excluded.type,
			industry = excluded.industry,
			website = excluded.website,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, c.Name, c.CountryCode, nullable(c.CountryName),
		nullable(c.City), c.Type, nullable(c.Industry), nullable(c.Website),
	)
	return err
}

// SaveLocation upserts a location by ID.
func (r *SQLRepository) SaveLocation(ctx context.Context, l *domain.Location) error {
	query := `
		INSERT INTO locations (id, type, country_code, country_name, city, latitude, longitude, region, continent, address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type,
			country_code = excluded.country_code,
			country_name = excluded.country_name,
			city = excluded.city,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			region = excluded.region,
			continent = excluded.continent,
			address = excluded.address,
			updated_at = CURRENT_TIMESTAMP
	`
	var city any
	if l.City != nil {
		city = *l.City
	}
	_, err := r.db.ExecContext(ctx, r.rebind(query),
		l.ID, l.Type, l.CountryCode, l.CountryName, city,
		l.Latitude, l.Longitude, nullable(l.Region), nullable(l.Continent), nullable(l.Address),
	)
	return err
}

// SaveTransaction upserts a transaction by ID, keeping source reloads
// idempotent.
func (r *SQLRepository) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO transactions (
			id, exporter_company_id, importer_company_id,
			origin_country_code, origin_country_name,
			destination_country_code, destination_country_name,
			material, category_id, quantity, unit, price, total_value,
			transaction_date, status, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			exporter_company_id = excluded.exporter_company_id,
			importer_company_id = excluded.importer_company_id,
			origin_country_code = excluded.origin_country_code,
			origin_country_name = excluded.origin_country_name,
			destination_country_code = excluded.destination_country_code,
			destination_country_name = excluded.destination_country_name,
			material = excluded.material,
			category_id = excluded.category_id,
			quantity = excluded.quantity,
			unit = excluded.unit,
			price = excluded.price,
			total_value = excluded.total_value,
			transaction_date = excluded.transaction_date,
			status = excluded.status,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`
	var exporterID, importerID any
	if t.ExporterCompanyID != nil {
		exporterID = *t.ExporterCompanyID
	}
	if t.ImporterCompanyID != nil {
		importerID = *t.ImporterCompanyID
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		t.ID, exporterID, importerID,
		t.OriginCountryCode, nullable(t.OriginCountryName),
		t.DestinationCountryCode, nullable(t.DestinationCountryName),
		nullable(t.Material), t.CategoryID, t.Quantity, nullable(t.Unit),
		t.Price, t.TotalValue, t.TransactionDate, t.Status, nullable(t.Notes),
	)
	return err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
