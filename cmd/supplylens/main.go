package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/supplylens/supplylens/internal/api"
	"github.com/supplylens/supplylens/internal/cache"
	"github.com/supplylens/supplylens/internal/domain"
	"github.com/supplylens/supplylens/internal/repository"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := domain.FromEnv()

	logLevel := slog.LevelInfo
	if cfg.Logging.Level == "debug" || os.Getenv("SUPPLYLENS_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("starting supplylens",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"chat_enabled", cfg.Chat.APIKey != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	srv := api.NewServer(cfg, repo, cacheImpl, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("supplylens is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("supplylens shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  supplylens - supply chain trade analytics")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Store:    %s\n", cfg.Repository.Driver)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    GET  /api/health                      - Health check")
	fmt.Println("    GET  /api/categories                  - List material categories")
	fmt.Println("    GET  /api/companies                   - List companies")
	fmt.Println("    GET  /api/companies/with-locations    - Companies with coordinates")
	fmt.Println("    GET  /api/locations                   - List locations")
	fmt.Println("    GET  /api/transactions                - List shipments (paginated)")
	fmt.Println("    GET  /api/transactions/stats          - Shipment aggregates")
	fmt.Println("    GET  /api/country-trade-stats         - Monthly trade statistics")
	fmt.Println("    GET  /api/country-trade-stats/summary - Trade statistics summary")
	fmt.Println("    GET  /api/country-trade-stats/trends  - Monthly trend series")
	fmt.Println("    GET  /api/shipments                   - Origin-destination flows")
	fmt.Println("    GET  /api/monthly-company-flows       - Company-level flows")
	fmt.Println("    POST /api/chat                        - Chat completion proxy")
	fmt.Println()
}
