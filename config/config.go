package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime settings. Values come from the environment,
// optionally seeded from a .env file.
type AppConfig struct {
	Host               string
	Port               string
	AllowedOrigins     []string
	RateLimitPerSecond float64

	DatabaseURL string

	BrowserBackend  string // "rod", "playwright" or "http"
	ChromiumBin     string
	PageLoadTimeout time.Duration
	HTTPTimeout     time.Duration

	CurrencyPrefix string
	CurrencyTokens []string
	TitleSelectors []string
	PriceSelectors []string

	ResolutionCacheTTL time.Duration
	RequoteSchedule    string

	Search *SearchConfig
}

// Default selector chains. Order matters: most specific first, and new site
// layouts are appended at the end.
var (
	DefaultTitleSelectors = []string{
		"h1",
		".pdp-mod-product-badge-title",
	}
	DefaultPriceSelectors = []string{
		".pdp-product-price .pdp-price",
		".pdp-price_type_normal",
		".pdp-price",
		"[itemprop='price']",
		".product-price",
		".current-price",
		".price",
	}
	DefaultCurrencyTokens = []string{"NRs", "NPR", "Rs"}
)

// Load reads .env (if present) and then the environment
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only
func FromEnv() *AppConfig {
	return &AppConfig{
		Host:               getEnv("HOST", "127.0.0.1"),
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", ",", []string{"http://localhost:3000"}),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 5),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		BrowserBackend:     strings.ToLower(getEnv("BROWSER_BACKEND", "rod")),
		ChromiumBin:        getEnv("CHROMIUM_BIN", ""),
		PageLoadTimeout:    getEnvDuration("PAGE_LOAD_TIMEOUT", 20*time.Second),
		HTTPTimeout:        getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		CurrencyPrefix:     getEnv("CURRENCY_PREFIX", "NPR"),
		CurrencyTokens:     getEnvList("PRICE_CURRENCY_TOKENS", ",", DefaultCurrencyTokens),
		TitleSelectors:     getEnvList("TITLE_SELECTORS", ";", DefaultTitleSelectors),
		PriceSelectors:     getEnvList("PRICE_SELECTORS", ";", DefaultPriceSelectors),
		ResolutionCacheTTL: getEnvDuration("RESOLUTION_CACHE_TTL", 10*time.Minute),
		RequoteSchedule:    getEnv("REQUOTE_SCHEDULE", ""),
		Search:             LoadSearchConfig(),
	}
}

// Addr returns host:port for the HTTP listener
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits on sep and drops empty entries. Selectors use ";" since
// CSS selector groups contain commas.
func getEnvList(key, sep string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
