package domain

// Row is a generic result row from the reporting fact tables: every
// column present in the result set appears as a key, NULLs included
// (mapped to nil). Field order within a row is not significant; row
// order follows the query's ORDER BY.
type Row = map[string]any

// CountryMonthlyTradeStat is one pre-aggregated bucket of trade between
// the reporting country and the world for (hs_code, year, month).
type CountryMonthlyTradeStat struct {
	ID               string   `json:"id"`
	HSCode           string   `json:"hs_code"`
	Year             int      `json:"year"`
	Month            int      `json:"month"`
	CountryCode      string   `json:"country_code"`
	Industry         string   `json:"industry"`
	Weight           *float64 `json:"weight"`
	Quantity         *float64 `json:"quantity"`
	SumOfUSD         *float64 `json:"sum_of_usd"`
	WeightAvgPrice   *float64 `json:"weight_avg_price"`
	QuantityAvgPrice *float64 `json:"quantity_avg_price"`
	TradeCount       *int     `json:"trade_count"`
	AmountSharePct   float64  `json:"amount_share_pct"`
}

// CountryOriginTradeStat is one pre-aggregated bucket keyed additionally
// by the origin-destination country pair.
type CountryOriginTradeStat struct {
	ID                     string   `json:"id"`
	HSCode                 string   `json:"hs_code"`
	Year                   int      `json:"year"`
	Month                  int      `json:"month"`
	OriginCountryCode      string   `json:"origin_country_code"`
	DestinationCountryCode string   `json:"destination_country_code"`
	Industry               string   `json:"industry"`
	Weight                 *float64 `json:"weight"`
	Quantity               *float64 `json:"quantity"`
	SumOfUSD               *float64 `json:"sum_of_usd"`
	WeightAvgPrice         *float64 `json:"weight_avg_price"`
	QuantityAvgPrice       *float64 `json:"quantity_avg_price"`
	TradeCount             *int     `json:"trade_count"`
	AmountSharePct         float64  `json:"amount_share_pct"`
}

// MonthlyCompanyFlow is the per-month aggregation of shipments between
// an exporter and an importer.
type MonthlyCompanyFlow struct {
	YearMonth            string   `json:"year_month"`
	ExporterName         string   `json:"exporter_name"`
	ImporterName         string   `json:"importer_name"`
	OriginCountry        string   `json:"origin_country"`
	DestinationCountry   string   `json:"destination_country"`
	HSCodes              string   `json:"hs_codes"` // comma-joined
	TransportMode        string   `json:"transport_mode"`
	TradeTerm            string   `json:"trade_term"`
	TransactionCount     int      `json:"transaction_count"`
	TotalValueUSD        *float64 `json:"total_value_usd"`
	TotalWeightKg        *float64 `json:"total_weight_kg"`
	TotalQuantity        *float64 `json:"total_quantity"`
	FirstTransactionDate string   `json:"first_transaction_date"`
	LastTransactionDate  string   `json:"last_transaction_date"`
}

// HSCodeCategory maps a 2-digit HS chapter to a chapter name and a
// coarse category bucket (equipment vs raw_material).
type HSCodeCategory struct {
	HSCode      string `json:"hs_code"`
	ChapterName string `json:"chapter_name"`
	CategoryID  string `json:"category_id"`
}

// CountryLocation is a country-level geocoding reference row.
type CountryLocation struct {
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      string  `json:"region,omitempty"`
	Continent   string  `json:"continent,omitempty"`
}

// PortLocation is a port-level geocoding reference row. Country rows
// are derivable from ports by grouping; both are kept for API
// compatibility.
type PortLocation struct {
	PortName    string  `json:"port_name"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      string  `json:"region,omitempty"`
	Continent   string  `json:"continent,omitempty"`
}

// TradeStatSummary is the single-row reduction over the filtered
// country_monthly_trade_stats set. Sums default to zero, never null.
type TradeStatSummary struct {
	TotalCountries  int      `json:"total_countries"`
	TotalTradeValue float64  `json:"total_trade_value"`
	TotalWeight     *float64 `json:"total_weight"`
	TotalQuantity   *float64 `json:"total_quantity"`
	TotalTradeCount int      `json:"total_trade_count"`
	AvgSharePct     float64  `json:"avg_share_pct"`
}
