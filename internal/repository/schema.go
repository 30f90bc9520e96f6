package repository

// Schema definitions for the supplylens database.
// Compatible with both SQLite and PostgreSQL.
//
// Core tables back the CRUD entities and are migrated at server
// startup. Reporting tables are provisioned by the import CLI; the API
// tolerates their absence via the missing-relation guard.

const schemaCategories = `
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#888888',
    icon TEXT,
    description TEXT,
    sort_order INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_categories_sort ON categories(sort_order);
`

const schemaCompanies = `
CREATE TABLE IF NOT EXISTS companies (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    country_code TEXT NOT NULL,
    country_name TEXT,
    city TEXT,
    type TEXT NOT NULL CHECK (type IN ('importer', 'exporter', 'both')),
    industry TEXT,
    website TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_companies_country ON companies(country_code);
CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
`

const schemaLocations = `
CREATE TABLE IF NOT EXISTS locations (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL CHECK (type IN ('country', 'city')),
    country_code TEXT NOT NULL,
    country_name TEXT NOT NULL,
    city TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    region TEXT,
    continent TEXT,
    address TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_country
    ON locations(country_code) WHERE type = 'country';
CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_city
    ON locations(country_code, city) WHERE type = 'city';
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    exporter_company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
    importer_company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
    origin_country_code TEXT NOT NULL,
    origin_country_name TEXT,
    destination_country_code TEXT NOT NULL,
    destination_country_name TEXT,
    material TEXT,
    category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
    quantity REAL NOT NULL,
    unit TEXT,
    price REAL NOT NULL,
    total_value REAL NOT NULL,
    transaction_date TIMESTAMP NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('completed', 'in-transit', 'pending', 'cancelled')),
    notes TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_origin ON transactions(origin_country_code);
CREATE INDEX IF NOT EXISTS idx_transactions_destination ON transactions(destination_country_code);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id);
`

const schemaMonthlyStats = `
CREATE TABLE IF NOT EXISTS country_monthly_trade_stats (
    id TEXT PRIMARY KEY,
    hs_code TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    country_code TEXT NOT NULL,
    industry TEXT,
    weight REAL,
    quantity REAL,
    sum_of_usd REAL,
    weight_avg_price REAL,
    quantity_avg_price REAL,
    trade_count INTEGER,
    amount_share_pct REAL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (hs_code, year, month, country_code)
);

CREATE INDEX IF NOT EXISTS idx_cmts_hs_code ON country_monthly_trade_stats(hs_code);
CREATE INDEX IF NOT EXISTS idx_cmts_year_month ON country_monthly_trade_stats(year, month);
CREATE INDEX IF NOT EXISTS idx_cmts_country ON country_monthly_trade_stats(country_code);
CREATE INDEX IF NOT EXISTS idx_cmts_industry ON country_monthly_trade_stats(industry);
`

const schemaOriginStats = `
CREATE TABLE IF NOT EXISTS country_origin_trade_stats (
    id TEXT PRIMARY KEY,
    hs_code TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    origin_country_code TEXT NOT NULL,
    destination_country_code TEXT NOT NULL,
    industry TEXT,
    weight REAL,
    quantity REAL,
    sum_of_usd REAL,
    weight_avg_price REAL,
    quantity_avg_price REAL,
    trade_count INTEGER,
    amount_share_pct REAL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (hs_code, year, month, origin_country_code, destination_country_code)
);

CREATE INDEX IF NOT EXISTS idx_cots_hs_code ON country_origin_trade_stats(hs_code);
CREATE INDEX IF NOT EXISTS idx_cots_year_month ON country_origin_trade_stats(year, month);
CREATE INDEX IF NOT EXISTS idx_cots_origin ON country_origin_trade_stats(origin_country_code);
CREATE INDEX IF NOT EXISTS idx_cots_destination ON country_origin_trade_stats(destination_country_code);
`

const schemaCompanyFlows = `
CREATE TABLE IF NOT EXISTS monthly_company_flows (
    year_month TEXT NOT NULL,
    exporter_name TEXT NOT NULL,
    importer_name TEXT NOT NULL,
    origin_country TEXT,
    destination_country TEXT NOT NULL,
    hs_codes TEXT,
    transport_mode TEXT,
    trade_term TEXT,
    transaction_count INTEGER,
    total_value_usd REAL,
    total_weight_kg REAL,
    total_quantity REAL,
    first_transaction_date TEXT,
    last_transaction_date TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (year_month, exporter_name, importer_name)
);

CREATE INDEX IF NOT EXISTS idx_mcf_year_month ON monthly_company_flows(year_month);
CREATE INDEX IF NOT EXISTS idx_mcf_countries ON monthly_company_flows(origin_country, destination_country);
`

const schemaHSCodeCategories = `
CREATE TABLE IF NOT EXISTS hs_code_categories (
    hs_code TEXT PRIMARY KEY,
    chapter_name TEXT NOT NULL,
    category_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const schemaCountryLocations = `
CREATE TABLE IF NOT EXISTS country_locations (
    country_code TEXT PRIMARY KEY,
    country_name TEXT NOT NULL UNIQUE,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    region TEXT,
    continent TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const schemaPortLocations = `
CREATE TABLE IF NOT EXISTS port_locations (
    port_name TEXT PRIMARY KEY,
    country_code TEXT NOT NULL,
    country_name TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    region TEXT,
    continent TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_port_locations_country ON port_locations(country_code);
`

// CoreSchemas returns the foundational table statements, migrated on
// every server start.
func CoreSchemas() []string {
	return []string{
		schemaCategories,
		schemaCompanies,
		schemaLocations,
		schemaTransactions,
	}
}

// ReportingSchemas returns the fact-table statements provisioned by the
// import CLI.
func ReportingSchemas() []string {
	return []string{
		schemaMonthlyStats,
		schemaOriginStats,
		schemaCompanyFlows,
		schemaHSCodeCategories,
		schemaCountryLocations,
		schemaPortLocations,
	}
}
