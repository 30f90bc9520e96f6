package domain

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete supplylens server configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Component configurations
	Repository RepositoryConfig `json:"repository"`
	Cache      CacheConfig      `json:"cache"`

	// HTTP policy
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit"`

	// Chat proxy (optional, disabled without an API key)
	Chat ChatConfig `json:"chat"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// CORSConfig holds the cross-origin allow policy.
// Origins are matched exactly; OriginRegex additionally matches preview
// deployment hosts. Unlisted origins receive no CORS headers at all.
type CORSConfig struct {
	Origins     []string `json:"origins"`
	OriginRegex string   `json:"originRegex"`
}

// RateLimitConfig holds the per-client token bucket settings.
// Disabled when RequestsPerSecond is zero.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// ChatConfig holds settings for the chat completion pass-through.
type ChatConfig struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns a local-development configuration backed by SQLite.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  30,
			WriteTimeout: 60,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./supplylens.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 1024,
			LocalTTL:     5 * time.Minute,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3001"},
		},
		Chat: ChatConfig{
			Model: "gpt-4o-2024-08-06",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "supplylens",
		},
	}
}

// FromEnv returns the default configuration overridden by environment
// variables. DATABASE_URL switches the store to PostgreSQL.
func FromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Repository.Driver = "postgres"
		cfg.Repository.DatabaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.Origins = origins
	}
	if v := os.Getenv("CORS_ORIGIN_REGEX"); v != "" {
		cfg.CORS.OriginRegex = v
	}
	if v := os.Getenv("CACHE_TYPE"); v != "" {
		cfg.Cache.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RedisDB = db
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Burst = burst
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.Chat.Model = v
	}
	if os.Getenv("TRACING_ENABLED") == "true" {
		cfg.Tracing.Enabled = true
	}

	return cfg
}
