package config

import (
	"time"
)

// SearchConfig holds search backend credentials and limits
type SearchConfig struct {
	GoogleCSEKey string
	GoogleCSECX  string
	SerpAPIKey   string

	// APIRatePerMinute throttles each structured API provider
	APIRatePerMinute int

	// Engines lists rendered-page engines in priority order
	Engines     []string
	MaxResults  int
	WaitTimeout time.Duration
	QuerySuffix string

	// ResolveLinks lets the orchestrator open a candidate link when its
	// snippet carries no price
	ResolveLinks bool
}

// LoadSearchConfig loads search configuration from environment variables
func LoadSearchConfig() *SearchConfig {
	return &SearchConfig{
		GoogleCSEKey:     getEnv("GOOGLE_CSE_KEY", ""),
		GoogleCSECX:      getEnv("GOOGLE_CSE_CX", ""),
		SerpAPIKey:       getEnv("SERPAPI_KEY", ""),
		APIRatePerMinute: getEnvInt("API_RATE_PER_MINUTE", 60),
		Engines:          getEnvList("SEARCH_ENGINES", ",", []string{"google", "bing", "duckduckgo"}),
		MaxResults:       getEnvInt("SEARCH_MAX_RESULTS", 3),
		WaitTimeout:      getEnvDuration("SEARCH_WAIT_TIMEOUT", 8*time.Second),
		QuerySuffix:      getEnv("SEARCH_QUERY_SUFFIX", " price in Nepal"),
		ResolveLinks:     getEnvBool("RESOLVE_LINKS", true),
	}
}

// GoogleCSEValid checks if the Google Custom Search credentials are usable
func (c *SearchConfig) GoogleCSEValid() bool {
	return c.GoogleCSEKey != "" && c.GoogleCSECX != ""
}

// SerpAPIValid checks if the SerpAPI credential is usable
func (c *SearchConfig) SerpAPIValid() bool {
	return c.SerpAPIKey != ""
}
