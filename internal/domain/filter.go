package domain

// Filter parameter sets for the query endpoints. A nil/zero field means
// the filter is absent; an empty multi-value slice is treated the same
// as absent, never as "matches nothing".

// TradeStatFilter scopes country_monthly_trade_stats reads.
type TradeStatFilter struct {
	HSCodes        []string
	Year           int
	Month          int
	Countries      []string
	Industry       string
	StartYearMonth string // YYYY-MM
	EndYearMonth   string // YYYY-MM
	Limit          int
}

// TrendFilter scopes the per-month trend aggregation.
type TrendFilter struct {
	HSCode         string
	Country        string
	Industry       string
	StartYearMonth string
	EndYearMonth   string
}

// TopCountryFilter scopes the top-N country ranking.
type TopCountryFilter struct {
	HSCode   string
	Year     int
	Month    int
	Industry string
	Limit    int
}

// ShipmentFilter scopes country_origin_trade_stats reads.
// Countries matches either side of the origin-destination pair.
// HS-code filters apply in priority order: full codes beat the
// prefix+suffix combination, which beats prefix-only, then suffix-only.
type ShipmentFilter struct {
	StartDate      string // YYYY-MM-DD, compared against the derived date
	EndDate        string
	Countries      []string
	HSCodes        []string
	HSCodePrefixes []string
	HSCodeSuffixes []string
	Limit          int
}

// FlowFilter scopes monthly_company_flows reads. CategoryIDs traverses
// the HS-chapter category mapping.
type FlowFilter struct {
	StartYearMonth string
	EndYearMonth   string
	Countries      []string
	Companies      []string
	CategoryIDs    []string
}

// TransactionFilter scopes the transaction listing and its stats.
// OriginCountries matches either the origin or the destination side.
type TransactionFilter struct {
	StartDate          string // ISO date/datetime
	EndDate            string
	OriginCountries    []string
	DestinationCountry string
	CategoryIDs        []string
	CompanyID          string
	MinValue           *float64
	MaxValue           *float64
	Statuses           []string
	Page               int
	Limit              int
}

// CompanyFilter scopes company listings.
type CompanyFilter struct {
	CountryCode string
	City        string
	Type        string
	Search      string // case-insensitive substring on name
}

// LocationFilter scopes location listings.
type LocationFilter struct {
	Type        string
	CountryCode string
}
