// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	ClubsTable       = "clubs"
	ClubStatsTable   = "club_stats"
	MatchesTable     = "matches"
	MembersTable     = "members"
	MemberStatsTable = "member_stats"
	PlayersTable     = "players"
)

// DefaultMatchType is the EA match-type bucket fetched when no override is
// given (regular club matches).
const DefaultMatchType = "gameType5"

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// EA Pro Clubs API
	EABaseURL   string
	ClubID      int
	Platform    string
	MaxAttempts int
	BaseBackoff time.Duration
	HTTPTimeout time.Duration

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	StaticDir   string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// The database URL is the only hard requirement shared by every binary;
// binaries with extra requirements (cmd/api needs an OpenAI key) enforce them
// at startup.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("SUPABASE_DB_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		EABaseURL:   envOr("EA_BASE_URL", "https://proclubs.ea.com/api/nhl"),
		ClubID:      envInt("CLUB_ID", 26863),
		Platform:    envOr("PLATFORM", "common-gen5"),
		MaxAttempts: envInt("EA_MAX_ATTEMPTS", 7),
		BaseBackoff: envDuration("EA_BASE_BACKOFF", 5*time.Second),
		HTTPTimeout: envDuration("EA_HTTP_TIMEOUT", 30*time.Second),

		OpenAIAPIKey: envOr("OPENAI_API_KEY", ""),
		OpenAIModel:  envOr("OPENAI_MODEL", "gpt-4.1"),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		StaticDir:   envOr("STATIC_DIR", "web/static"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
