// Package domain defines the core interfaces and types for supplylens.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
//
// Core entity reads (categories, companies, locations, transactions)
// propagate every failure: their tables are foundational and are
// migrated at startup. Reporting reads degrade to an empty/default
// result when the backing table has not been provisioned yet; all
// other failures still propagate.
type Repository interface {
	// Categories
	ListCategories(ctx context.Context, activeOnly bool) ([]*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)

	// Companies
	ListCompanies(ctx context.Context, f CompanyFilter) ([]*Company, error)
	GetCompany(ctx context.Context, id string) (*Company, error)
	ListCompaniesWithLocations(ctx context.Context, f CompanyFilter) ([]*CompanyWithLocation, error)
	GetCompanyWithLocation(ctx context.Context, id string) (*CompanyWithLocation, error)

	// Locations
	ListLocations(ctx context.Context, f LocationFilter) ([]*Location, error)
	GetLocation(ctx context.Context, id string) (*Location, error)
	GetCityLocation(ctx context.Context, countryCode, city string) (*Location, error)

	// Transactions
	ListTransactions(ctx context.Context, f TransactionFilter) (*TransactionList, error)
	TransactionStats(ctx context.Context, f TransactionFilter) (*TransactionStats, error)

	// Reporting reads (missing relation recovered to empty/default)
	CountryTradeStats(ctx context.Context, f TradeStatFilter) ([]Row, error)
	CountryTradeStatsSummary(ctx context.Context, f TradeStatFilter) (*TradeStatSummary, error)
	CountryTradeTrends(ctx context.Context, f TrendFilter) ([]Row, error)
	TopCountries(ctx context.Context, f TopCountryFilter) ([]Row, error)
	Shipments(ctx context.Context, f ShipmentFilter) ([]Row, error)
	MonthlyCompanyFlows(ctx context.Context, f FlowFilter) ([]Row, error)
	HSCodeCategories(ctx context.Context) ([]Row, error)
	CountryLocations(ctx context.Context) ([]Row, error)
	PortLocations(ctx context.Context) ([]Row, error)
	CountryLocationsFromPorts(ctx context.Context) ([]Row, error)

	// ETL writes (idempotent natural-key upserts)
	SaveCategory(ctx context.Context, c *Category) error
	SaveCompany(ctx context.Context, c *Company) error
	SaveLocation(ctx context.Context, l *Location) error
	SaveTransaction(ctx context.Context, t *Transaction) error
	UpsertMonthlyStats(ctx context.Context, stats []*CountryMonthlyTradeStat) (int, error)
	UpsertOriginStats(ctx context.Context, stats []*CountryOriginTradeStat) (int, error)
	UpsertCompanyFlows(ctx context.Context, flows []*MonthlyCompanyFlow) (int, error)
	UpsertHSCodeCategories(ctx context.Context, cats []*HSCodeCategory) (int, error)
	UpsertCountryLocations(ctx context.Context, locs []*CountryLocation) (int, error)
	UpsertPortLocations(ctx context.Context, ports []*PortLocation) (int, error)

	// EnsureReportingSchema provisions the reporting tables; the import
	// CLI calls it before loading, the API server never does.
	EnsureReportingSchema(ctx context.Context) error

	// ClearTables deletes all rows from the named tables.
	ClearTables(ctx context.Context, tables ...string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific (postgres:// connection URL)
	DatabaseURL string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
