package repository

import (
	"database/sql"
	"fmt"

	"github.com/supplylens/supplylens/internal/domain"
	_ "github.com/lib/pq"
)

// openPostgres opens a PostgreSQL database connection from a
// postgres:// URL (the DATABASE_URL convention).
func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("postgres driver requires DatabaseURL")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return db, nil
}
