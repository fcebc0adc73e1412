// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Ledger settings
	Network        string // "testnet" or "mainnet"
	HorizonURL     string // Override for the Horizon base URL (defaults derived from Network)
	FetchWindow    int    // Max records per history fetch (transactions, payments, ...)
	HorizonTimeout time.Duration

	// Reputation enrichment
	DirectoryURL     string // Account directory/rating API base URL (optional)
	DirectoryTimeout time.Duration

	// Explanation generation
	ExplainURL     string // Generative text API base URL (optional, templates used if not set)
	ExplainAPIKey  string
	ExplainTimeout time.Duration

	// Security
	AdminSecret  string // Admin API secret for blacklist/report management
	RateLimitRPM int

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional)
}

// Defaults
const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultNetwork        = "testnet"
	DefaultFetchWindow    = 100
	DefaultRateLimit      = 60
	DefaultHorizonTimeout = 15 * time.Second
	DefaultEnrichTimeout  = 8 * time.Second
	DefaultExplainTimeout = 10 * time.Second
	TestnetHorizonURL     = "https://horizon-testnet.stellar.org"
	MainnetHorizonURL     = "https://horizon.stellar.org"
	DefaultDirectoryURL   = "https://api.stellar.expert/explorer/directory"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		Env:              getEnv("ENV", DefaultEnv),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:      os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		Network:          getEnv("NETWORK", DefaultNetwork),
		HorizonURL:       os.Getenv("HORIZON_URL"),
		FetchWindow:      getEnvInt("FETCH_WINDOW", DefaultFetchWindow),
		HorizonTimeout:   getEnvDuration("HORIZON_TIMEOUT", DefaultHorizonTimeout),
		DirectoryURL:     getEnv("DIRECTORY_URL", DefaultDirectoryURL),
		DirectoryTimeout: getEnvDuration("DIRECTORY_TIMEOUT", DefaultEnrichTimeout),
		ExplainURL:       os.Getenv("EXPLAIN_URL"),
		ExplainAPIKey:    os.Getenv("EXPLAIN_API_KEY"),
		ExplainTimeout:   getEnvDuration("EXPLAIN_TIMEOUT", DefaultExplainTimeout),
		AdminSecret:      os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Network != "testnet" && c.Network != "mainnet" {
		return fmt.Errorf("NETWORK must be \"testnet\" or \"mainnet\", got %q", c.Network)
	}
	if c.FetchWindow < 1 || c.FetchWindow > 200 {
		return fmt.Errorf("FETCH_WINDOW must be between 1 and 200, got %d", c.FetchWindow)
	}
	return nil
}

// ResolveHorizonURL returns the configured Horizon base URL, falling back to
// the well-known endpoint for the selected network.
func (c *Config) ResolveHorizonURL() string {
	if c.HorizonURL != "" {
		return c.HorizonURL
	}
	if c.Network == "mainnet" {
		return MainnetHorizonURL
	}
	return TestnetHorizonURL
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
