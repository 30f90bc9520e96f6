package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/supplylens/supplylens/internal/domain"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo    domain.Repository
	cache   domain.Cache
	chat    domain.ChatConfig
	version string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, chat domain.ChatConfig, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		chat:    chat,
		version: version,
	}
}

// Root returns the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "supplylens",
		"message": "supply chain trade data API",
		"version": h.version,
		"docs":    "/api",
	})
}

// Health returns service health, degraded when a dependency fails its ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// ListCategories returns categories ordered by sort_order.
// active_only defaults to true.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := queryBool(r, "active_only", true)

	cats, err := h.repo.ListCategories(r.Context(), activeOnly)
	if err != nil {
		h.writeError(w, r, err, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// GetCategory returns a single category by ID.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.repo.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "failed to get category")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func companyFilter(r *http.Request) domain.CompanyFilter {
	return domain.CompanyFilter{
		CountryCode: queryString(r, "country_code"),
		City:        queryString(r, "city"),
		Type:        queryString(r, "type"),
		Search:      queryString(r, "search"),
	}
}

// ListCompanies returns companies ordered by name.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.repo.ListCompanies(r.Context(), companyFilter(r))
	if err != nil {
		h.writeError(w, r, err, "failed to list companies")
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// ListCompaniesWithLocations returns companies joined with coordinates.
// The city-level location wins; companies without a location at either
// level are dropped from the result.
func (h *Handler) ListCompaniesWithLocations(w http.ResponseWriter, r *http.Request) {
	companies, err := h.repo.ListCompaniesWithLocations(r.Context(), companyFilter(r))
	if err != nil {
		h.writeError(w, r, err, "failed to list companies with locations")
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

// GetCompany returns a single company by ID.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.repo.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "failed to get company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// GetCompanyLocation returns a company with its resolved location,
// 404 when no location exists at either the city or country level.
func (h *Handler) GetCompanyLocation(w http.ResponseWriter, r *http.Request) {
	company, err := h.repo.GetCompanyWithLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "failed to get company location")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

// ListLocations returns locations, optionally scoped by type and country.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	f := domain.LocationFilter{
		Type:        queryString(r, "type"),
		CountryCode: queryString(r, "country_code"),
	}
	locations, err := h.repo.ListLocations(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err, "failed to list locations")
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// ListCountryLevelLocations returns country-granularity locations only.
func (h *Handler) ListCountryLevelLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repo.ListLocations(r.Context(), domain.LocationFilter{Type: "country"})
	if err != nil {
		h.writeError(w, r, err, "failed to list country locations")
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// ListCityLevelLocations returns city-granularity locations only.
func (h *Handler) ListCityLevelLocations(w http.ResponseWriter, r *http.Request) {
	f := domain.LocationFilter{
		Type:        "city",
		CountryCode: queryString(r, "country_code"),
	}
	locations, err := h.repo.ListLocations(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err, "failed to list city locations")
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// GetLocation returns a single location by ID.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.repo.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "failed to get location")
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// GetCityLocation resolves a city's location, falling back to the
// country-level row when the city is not geocoded.
func (h *Handler) GetCityLocation(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	city := chi.URLParam(r, "city")

	location, err := h.repo.GetCityLocation(r.Context(), code, city)
	if err != nil {
		h.writeError(w, r, err, "failed to get city location")
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func transactionFilter(r *http.Request) domain.TransactionFilter {
	return domain.TransactionFilter{
		StartDate:          queryString(r, "start_date"),
		EndDate:            queryString(r, "end_date"),
		OriginCountries:    queryValues(r, "origin_country"),
		DestinationCountry: queryString(r, "destination_country"),
		CategoryIDs:        queryValues(r, "category_id"),
		CompanyID:          queryString(r, "company_id"),
		MinValue:           queryFloat(r, "min_value"),
		MaxValue:           queryFloat(r, "max_value"),
		Statuses:           queryCSV(r, "status"),
		Page:               queryInt(r, "page", 1),
		Limit:              queryInt(r, "limit", 100),
	}
}

// ListTransactions returns a page of transactions joined with category
// and company display fields, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListTransactions(r.Context(), transactionFilter(r))
	if err != nil {
		h.writeError(w, r, err, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// writeError maps domain errors onto HTTP statuses. Details of
// unexpected failures go to the log, not the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidYearMonth), errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "not found",
		})
	default:
		slog.Error(msg, "path", r.URL.Path, "error", err, "trace_id", GetTraceID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
