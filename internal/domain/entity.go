package domain

import "time"

// Category is a material/product category used to classify transactions.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// Company is a trading party referenced by transactions.
// IDs are derived deterministically from country code and name, so the
// ETL can create companies lazily without duplicating them.
type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	City        string `json:"city"`
	Type        string `json:"type"` // importer, exporter, both
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
}

// CompanyWithLocation is a company joined to its best-available
// geographic location (city row first, country row as fallback).
type CompanyWithLocation struct {
	Company
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region,omitempty"`
	Continent string  `json:"continent,omitempty"`
}

// Location is a geocoding row at either country or city granularity.
type Location struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"` // country, city
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	City        *string `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      string  `json:"region,omitempty"`
	Continent   string  `json:"continent,omitempty"`
	Address     string  `json:"address,omitempty"`
}

// Transaction is a single trade shipment record.
type Transaction struct {
	ID                     string    `json:"id"`
	ExporterCompanyID      *string   `json:"exporter_company_id"`
	ImporterCompanyID      *string   `json:"importer_company_id"`
	OriginCountryCode      string    `json:"origin_country_code"`
	OriginCountryName      string    `json:"origin_country_name"`
	DestinationCountryCode string    `json:"destination_country_code"`
	DestinationCountryName string    `json:"destination_country_name"`
	Material               string    `json:"material"`
	CategoryID             string    `json:"category_id"`
	Quantity               float64   `json:"quantity"`
	Unit                   string    `json:"unit"`
	Price                  float64   `json:"price"`
	TotalValue             float64   `json:"total_value"`
	TransactionDate        time.Time `json:"transaction_date"`
	Status                 string    `json:"status"` // completed, in-transit, pending, cancelled
	Notes                  string    `json:"notes,omitempty"`
}

// TransactionDetail is a transaction joined with its category and
// company display fields, as returned by the list endpoint.
type TransactionDetail struct {
	ID                  string    `json:"id"`
	ExporterCompanyID   *string   `json:"exporter_company_id"`
	ExporterCompanyName *string   `json:"exporter_company_name"`
	ExporterCountryCode string    `json:"exporter_country_code"`
	ExporterCountryName string    `json:"exporter_country_name"`
	ImporterCompanyID   *string   `json:"importer_company_id"`
	ImporterCompanyName *string   `json:"importer_company_name"`
	ImporterCountryCode string    `json:"importer_country_code"`
	ImporterCountryName string    `json:"importer_country_name"`
	Material            string    `json:"material"`
	CategoryID          string    `json:"category_id"`
	CategoryName        string    `json:"category_name"`
	CategoryColor       string    `json:"category_color"`
	Quantity            float64   `json:"quantity"`
	Unit                string    `json:"unit"`
	Price               float64   `json:"price"`
	TotalValue          float64   `json:"total_value"`
	TransactionDate     time.Time `json:"transaction_date"`
	Status              string    `json:"status"`
	Notes               string    `json:"notes,omitempty"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// TransactionList is the paginated transaction listing response.
type TransactionList struct {
	Transactions []*TransactionDetail `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}

// CategoryBreakdown is one per-category slice of the transaction stats.
type CategoryBreakdown struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Count        int     `json:"count"`
	TotalValue   float64 `json:"total_value"`
}

// TopRoute is one origin-destination pair ranked by total value.
type TopRoute struct {
	OriginCountry      string  `json:"origin_country"`
	DestinationCountry string  `json:"destination_country"`
	TransactionCount   int     `json:"transaction_count"`
	TotalValue         float64 `json:"total_value"`
}

// TransactionStats is the aggregate view over a filtered transaction set.
type TransactionStats struct {
	TotalTransactions int                 `json:"total_transactions"`
	TotalValue        float64             `json:"total_value"`
	ActiveCountries   int                 `json:"active_countries"`
	ActiveCompanies   int                 `json:"active_companies"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
	TopRoutes         []TopRoute          `json:"top_routes"`
}
