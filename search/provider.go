package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"costbook/config"
	"costbook/models"
	"costbook/scraper"
)

// ErrNoResults is returned when a provider's wait or load condition ran out
// before any result showed up. The orchestrator treats it as "not found".
var ErrNoResults = errors.New("no results")

// Provider is one search backend
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.Candidate, error)
}

// BuildProviders assembles the provider list in priority order: structured
// APIs with valid credentials first, then rendered engines in the configured
// order. Unknown engine names are skipped with a warning.
func BuildProviders(cfg *config.SearchConfig, client *http.Client, loader scraper.Loader, parser *scraper.PriceParser) []Provider {
	var providers []Provider

	if cfg.GoogleCSEValid() {
		providers = append(providers, NewAPIProvider(GoogleCSE(cfg.GoogleCSEKey, cfg.GoogleCSECX), client, cfg.APIRatePerMinute, parser, cfg.MaxResults))
	}
	if cfg.SerpAPIValid() {
		providers = append(providers, NewAPIProvider(SerpAPI(cfg.SerpAPIKey), client, cfg.APIRatePerMinute, parser, cfg.MaxResults))
	}

	if loader != nil {
		for _, name := range cfg.Engines {
			engine, ok := EngineByName(name)
			if !ok {
				log.Printf("⚠️ Unknown search engine %q, skipping", name)
				continue
			}
			providers = append(providers, NewRenderedProvider(engine, loader, cfg.WaitTimeout, cfg.MaxResults))
		}
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.Printf("🔍 Search providers: %s", strings.Join(names, " → "))
	return providers
}

// wrapProvider prefixes an error with the provider name
func wrapProvider(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
