// Package config manages application configuration
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port           string
	Environment    string // "development" or "production"
	AllowedOrigins []string

	// Local database (device storage, local accounts, local investments)
	DatabaseURL string

	// Security
	SecretKey string // For signing local access tokens

	// Session freshness window for cached sessions
	SessionDuration time.Duration

	// Remote backend (Supabase). Auth is remote only when both are set.
	SupabaseURL            string
	SupabaseAnonKey        string
	InvestmentsDatabaseURL string
	WebhookSecret          string

	// Dashboard
	RefreshInterval  time.Duration
	FetchTimeout     time.Duration
	AvailableBalance decimal.Decimal

	// Feature flags
	SeedDemoData bool
}

// Load reads configuration from the environment, after merging a .env file when present
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not read .env: %v", err)
	}

	return &Config{
		Port:                   getEnv("OKEAMAH_PORT", "8080"),
		Environment:            getEnv("OKEAMAH_ENV", "development"),
		AllowedOrigins:         getListEnv("OKEAMAH_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DatabaseURL:            getEnv("OKEAMAH_DATABASE_URL", "okeamah.db"),
		SecretKey:              getEnv("OKEAMAH_SECRET_KEY", "dev-secret-key-change-in-production"),
		SessionDuration:        getDurationEnv("OKEAMAH_SESSION_DURATION", 24*time.Hour),
		SupabaseURL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		InvestmentsDatabaseURL: getEnv("SUPABASE_DATABASE_URL", ""),
		WebhookSecret:          getEnv("OKEAMAH_WEBHOOK_SECRET", ""),
		RefreshInterval:        getDurationEnv("OKEAMAH_REFRESH_INTERVAL", 30*time.Second),
		FetchTimeout:           getDurationEnv("OKEAMAH_FETCH_TIMEOUT", 10*time.Second),
		AvailableBalance:       getDecimalEnv("OKEAMAH_AVAILABLE_BALANCE", decimal.NewFromInt(8500)),
		SeedDemoData:           getBoolEnv("OKEAMAH_SEED_DEMO_DATA", true),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RemoteAuthConfigured reports whether the Supabase identity service can be used
func (c *Config) RemoteAuthConfigured() bool {
	return isSet(c.SupabaseURL) && isSet(c.SupabaseAnonKey)
}

// RemoteInvestmentsConfigured reports whether investments live in the Supabase database
func (c *Config) RemoteInvestmentsConfigured() bool {
	return isSet(c.InvestmentsDatabaseURL)
}

// Build tooling substitutes the literal "undefined" for missing variables
func isSet(v string) bool {
	return v != "" && v != "undefined"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
