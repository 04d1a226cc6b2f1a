// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings shared by the server, the CLI and the services.
type Config struct {
	Port     string
	LogLevel slog.Level

	// Azure Storage
	TableServiceURL  string
	SettingsTable    string
	ReportsTable     string
	BlobServiceURL   string
	LedgerContainer  string
	ReportsContainer string
	QueueServiceURL  string
	LedgerQueue      string

	// Notifications
	CommunicationEndpoint string
	SenderEmail           string
	UserEmail             string

	// Market data
	ExchangeAPIURL string
	ExchangeAPIKey string
	StockAPIURL    string
	StockAPIKey    string
	BaseCurrency   string
	RedisURL       string
	MarketCacheTTL time.Duration

	// Local settings fallback
	SettingsFile string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() *Config {
	port := getEnv("FUNCTIONS_CUSTOMHANDLER_PORT", "")
	if port == "" {
		port = getEnv("PORT", "8080")
	}

	return &Config{
		Port:     port,
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		TableServiceURL:  getEnv("TABLE_SERVICE_URL", ""),
		SettingsTable:    getEnv("SETTINGS_TABLE", "settings"),
		ReportsTable:     getEnv("REPORTS_TABLE", "reports"),
		BlobServiceURL:   getEnv("BLOB_SERVICE_URL", ""),
		LedgerContainer:  getEnv("LEDGER_CONTAINER", "ledger-data"),
		ReportsContainer: getEnv("REPORTS_CONTAINER", "reports"),
		QueueServiceURL:  getEnv("QUEUE_SERVICE_URL", ""),
		LedgerQueue:      getEnv("LEDGER_QUEUE", "process-ledger"),

		CommunicationEndpoint: getEnv("COMMUNICATION_SERVICES_ENDPOINT", ""),
		SenderEmail:           getEnv("SENDER_EMAIL", ""),
		UserEmail:             getEnv("USER_EMAIL", ""),

		ExchangeAPIURL: getEnv("EXCHANGE_API_URL", "https://api.apilayer.com/exchangerates_data"),
		ExchangeAPIKey: getEnv("EXCHANGE_API_KEY", ""),
		StockAPIURL:    getEnv("STOCK_API_URL", "https://www.alphavantage.co"),
		StockAPIKey:    getEnv("STOCK_API_KEY", ""),
		BaseCurrency:   getEnv("BASE_CURRENCY", "RUB"),
		RedisURL:       getEnv("REDIS_URL", ""),
		MarketCacheTTL: getEnvDuration("MARKET_CACHE_TTL", 15*time.Minute),

		SettingsFile: getEnv("SETTINGS_FILE", "user_settings.json"),
	}
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for name, value := range map[string]string{
		"TABLE_SERVICE_URL": c.TableServiceURL,
		"BLOB_SERVICE_URL":  c.BlobServiceURL,
		"QUEUE_SERVICE_URL": c.QueueServiceURL,
	} {
		if value == "" {
			errors = append(errors, fmt.Sprintf("%s environment variable is required", name))
			continue
		}
		if _, err := url.Parse(value); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", name, value, err))
		}
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errors = append(errors, fmt.Sprintf("invalid REDIS_URL '%s': must be a redis:// or rediss:// URL", c.RedisURL))
		}
	}

	if c.MarketCacheTTL <= 0 {
		errors = append(errors, "MARKET_CACHE_TTL must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// EmailEnabled reports whether enough is configured to send e-mail.
func (c *Config) EmailEnabled() bool {
	return c.CommunicationEndpoint != "" && c.SenderEmail != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
