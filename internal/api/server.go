package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/supplylens/supplylens/internal/domain"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg *domain.Config, repo domain.Repository, cache domain.Cache, version string) *Server {
	handler := NewHandler(repo, cache, cfg.Chat, version)
	router := chi.NewRouter()

	// Global middleware stack. CORS is outermost so 404/405/panic
	// responses still carry headers for allowed origins.
	router.Use(NewCORSMiddleware(cfg.CORS))
	router.Use(RecoverMiddleware)
	router.Use(TracingMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))
	router.Use(NewRateLimitMiddleware(cfg.RateLimit))

	router.Get("/", handler.Root)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.Health)

		r.Get("/categories", handler.ListCategories)
		r.Get("/categories/{id}", handler.GetCategory)

		r.Get("/companies", handler.ListCompanies)
		r.Get("/companies/with-locations", handler.ListCompaniesWithLocations)
		r.Get("/companies/{id}", handler.GetCompany)
		r.Get("/companies/{id}/location", handler.GetCompanyLocation)

		r.Get("/locations", handler.ListLocations)
		r.Get("/locations/countries", handler.ListCountryLevelLocations)
		r.Get("/locations/cities", handler.ListCityLevelLocations)
		r.Get("/locations/country/{code}/city/{city}", handler.GetCityLocation)
		r.Get("/locations/{id}", handler.GetLocation)

		r.Get("/transactions", handler.ListTransactions)
		r.Get("/transactions/stats", handler.TransactionStats)

		r.Get("/country-trade-stats", handler.CountryTradeStats)
		r.Get("/country-trade-stats/summary", handler.CountryTradeStatsSummary)
		r.Get("/country-trade-stats/trends", handler.CountryTradeTrends)
		r.Get("/country-trade-stats/top-countries", handler.TopCountries)

		r.Get("/shipments", handler.Shipments)
		r.Get("/monthly-company-flows", handler.MonthlyCompanyFlows)
		r.Get("/hs-code-categories", handler.HSCodeCategories)

		r.Get("/country-locations", handler.CountryLocations)
		r.Get("/country-locations/compat", handler.CountryLocationsFromPorts)
		r.Get("/port-locations", handler.PortLocations)

		r.Post("/chat", handler.Chat)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg.Server,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
