package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/supplylens/supplylens/internal/domain"
)

// TTL for cached aggregation responses. The import CLI is the only
// writer and runs offline, so short staleness is acceptable.
const aggregateCacheTTL = 5 * time.Minute

func tradeStatFilter(r *http.Request) domain.TradeStatFilter {
	return domain.TradeStatFilter{
		HSCodes:        queryValues(r, "hs_code"),
		Year:           queryInt(r, "year", 0),
		Month:          queryInt(r, "month", 0),
		Countries:      queryValues(r, "country"),
		Industry:       queryString(r, "industry"),
		StartYearMonth: queryString(r, "start_year_month"),
		EndYearMonth:   queryString(r, "end_year_month"),
		Limit:          queryInt(r, "limit", 0),
	}
}

// CountryTradeStats returns pre-aggregated monthly trade rows, newest
// period first then value descending.
func (h *Handler) CountryTradeStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.CountryTradeStats(r.Context(), tradeStatFilter(r))
	if err != nil {
		h.writeError(w, r, err, "failed to query trade stats")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// CountryTradeStatsSummary returns the single-row reduction over the
// filtered set, zero-valued when nothing matches.
func (h *Handler) CountryTradeStatsSummary(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, func() (any, error) {
		return h.repo.CountryTradeStatsSummary(r.Context(), tradeStatFilter(r))
	})
}

// CountryTradeTrends returns per-month aggregates, oldest first, with a
// year_month label for plotting.
func (h *Handler) CountryTradeTrends(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, func() (any, error) {
		f := domain.TrendFilter{
			HSCode:         queryString(r, "hs_code"),
			Country:        queryString(r, "country"),
			Industry:       queryString(r, "industry"),
			StartYearMonth: queryString(r, "start_year_month"),
			EndYearMonth:   queryString(r, "end_year_month"),
		}
		return h.repo.CountryTradeTrends(r.Context(), f)
	})
}

// TopCountries ranks countries by trade value under the given filters.
func (h *Handler) TopCountries(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, func() (any, error) {
		f := domain.TopCountryFilter{
			HSCode:   queryString(r, "hs_code"),
			Year:     queryInt(r, "year", 0),
			Month:    queryInt(r, "month", 0),
			Industry: queryString(r, "industry"),
			Limit:    queryInt(r, "limit", 0),
		}
		return h.repo.TopCountries(r.Context(), f)
	})
}

// TransactionStats returns aggregates over the filtered transaction set.
func (h *Handler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, func() (any, error) {
		return h.repo.TransactionStats(r.Context(), transactionFilter(r))
	})
}

// Shipments serves historical shipment rows from the origin-destination
// aggregation, joined to country names for compatibility.
func (h *Handler) Shipments(w http.ResponseWriter, r *http.Request) {
	f := domain.ShipmentFilter{
		StartDate:      queryString(r, "start_date"),
		EndDate:        queryString(r, "end_date"),
		Countries:      queryValues(r, "country"),
		HSCodes:        queryValues(r, "hs_code"),
		HSCodePrefixes: queryValues(r, "hs_code_prefix"),
		HSCodeSuffixes: queryValues(r, "hs_code_suffix"),
		Limit:          queryInt(r, "limit", 0),
	}
	rows, err := h.repo.Shipments(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err, "failed to query shipments")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// MonthlyCompanyFlows returns exporter-importer monthly aggregates,
// newest period first.
func (h *Handler) MonthlyCompanyFlows(w http.ResponseWriter, r *http.Request) {
	f := domain.FlowFilter{
		StartYearMonth: queryString(r, "start_year_month"),
		EndYearMonth:   queryString(r, "end_year_month"),
		Countries:      queryValues(r, "country"),
		Companies:      queryValues(r, "company"),
		CategoryIDs:    queryValues(r, "category_id"),
	}
	rows, err := h.repo.MonthlyCompanyFlows(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err, "failed to query company flows")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HSCodeCategories returns the HS chapter to category mapping.
func (h *Handler) HSCodeCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.HSCodeCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to query hs code categories")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// CountryLocations returns country-level geocoding reference rows.
func (h *Handler) CountryLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.CountryLocations(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to query country locations")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// PortLocations returns port-level geocoding reference rows.
func (h *Handler) PortLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.PortLocations(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to query port locations")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// CountryLocationsFromPorts derives country rows by grouping ports,
// kept for clients that predate the country_locations table.
func (h *Handler) CountryLocationsFromPorts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.CountryLocationsFromPorts(r.Context())
	if err != nil {
		h.writeError(w, r, err, "failed to query derived country locations")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// cached serves an aggregation response through the response cache,
// keyed by path plus the normalized (sorted) query string. Cache
// failures fall through to a direct computation.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	key := r.URL.Path + "?" + r.URL.Query().Encode()

	if h.cache != nil {
		if body, err := h.cache.Get(r.Context(), key); err == nil && body != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	result, err := compute()
	if err != nil {
		h.writeError(w, r, err, "failed to compute aggregation")
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		h.writeError(w, r, err, "failed to encode aggregation")
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), key, body, aggregateCacheTTL)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
