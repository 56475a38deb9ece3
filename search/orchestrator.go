package search

import (
	"context"
	"errors"
	"log"
	"strings"

	"costbook/models"
	"costbook/scraper"
)

// Orchestrator walks providers in priority order and stops at the first
// priced hit. It never compares prices across providers.
type Orchestrator struct {
	providers    []Provider
	parser       *scraper.PriceParser
	extractor    *scraper.PageExtractor
	loader       scraper.Loader
	querySuffix  string
	resolveLinks bool
}

// OrchestratorOptions tune query building and link resolution
type OrchestratorOptions struct {
	QuerySuffix string
	// ResolveLinks opens a candidate's link when its snippet has no price.
	// Requires an extractor and a loader.
	ResolveLinks bool
}

// NewOrchestrator creates an orchestrator over providers
func NewOrchestrator(providers []Provider, parser *scraper.PriceParser, extractor *scraper.PageExtractor, loader scraper.Loader, opts OrchestratorOptions) *Orchestrator {
	if parser == nil {
		parser = scraper.NewPriceParser()
	}
	return &Orchestrator{
		providers:    providers,
		parser:       parser,
		extractor:    extractor,
		loader:       loader,
		querySuffix:  opts.QuerySuffix,
		resolveLinks: opts.ResolveLinks && extractor != nil && loader != nil,
	}
}

// Providers returns the provider names in priority order
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve searches for query and returns Found, NotFound, or Failed when the
// context is cancelled or the query is empty
func (o *Orchestrator) Resolve(ctx context.Context, query string) models.Resolution {
	name := strings.TrimSpace(query)
	if name == "" {
		return models.Failed(models.ErrEmptyQuery.Error())
	}
	searchQuery := name + o.querySuffix

	for _, provider := range o.providers {
		if ctx.Err() != nil {
			return models.Failed("cancelled")
		}

		candidates, err := provider.Search(ctx, searchQuery)
		if err != nil {
			if errors.Is(err, ErrNoResults) {
				log.Printf("⏰ %s had no results for %q", provider.Name(), searchQuery)
			} else {
				log.Printf("❌ %s failed: %v", provider.Name(), err)
			}
			continue
		}

		for _, c := range candidates {
			if ctx.Err() != nil {
				return models.Failed("cancelled")
			}
			if res, ok := o.tryCandidate(ctx, name, c); ok {
				log.Printf("✅ %s found %s for %q at %s", provider.Name(), res.Price, name, res.Source)
				return res.WithVia("search:" + provider.Name())
			}
		}
		log.Printf("🔍 %s: no usable candidate among %d", provider.Name(), len(candidates))
	}

	if ctx.Err() != nil {
		return models.Failed("cancelled")
	}
	return models.NotFound()
}

// tryCandidate prefers the snippet price and falls back to opening the link
func (o *Orchestrator) tryCandidate(ctx context.Context, name string, c models.Candidate) (models.Resolution, bool) {
	if price, ok := o.parser.Parse(c.Snippet); ok {
		return models.Found(name, price, c.URL), true
	}
	if !o.resolveLinks || c.URL == "" {
		return models.Resolution{}, false
	}

	res := o.extractor.ExtractURL(ctx, o.loader, c.URL)
	if !res.IsFound() {
		log.Printf("Candidate %s did not resolve: %s", c.URL, res.Reason)
		return models.Resolution{}, false
	}
	return models.Found(name, res.Price, c.URL), true
}
