package services

import (
	"context"
	"log"
	"time"

	"costbook/models"
	"costbook/scraper"
)

// Resolver turns a (name, link) pair into a Resolution
type Resolver interface {
	Resolve(ctx context.Context, name, link string) models.Resolution
}

// PageResolver resolves a product page link
type PageResolver interface {
	ResolvePage(ctx context.Context, link string) models.Resolution
}

// SearchResolver resolves a free-text product name
type SearchResolver interface {
	Resolve(ctx context.Context, query string) models.Resolution
}

// pageFetcher binds an extractor to the loader it reads pages with
type pageFetcher struct {
	extractor *scraper.PageExtractor
	loader    scraper.Loader
}

// NewPageResolver creates a PageResolver that loads links with loader
func NewPageResolver(extractor *scraper.PageExtractor, loader scraper.Loader) PageResolver {
	return &pageFetcher{extractor: extractor, loader: loader}
}

func (f *pageFetcher) ResolvePage(ctx context.Context, link string) models.Resolution {
	return f.extractor.ExtractURL(ctx, f.loader, link)
}

// ResolutionService is the single entry point for price resolution.
// A link goes straight to page extraction; a name goes to search.
// Each call is one pass with no automatic retry.
type ResolutionService struct {
	pages  PageResolver
	search SearchResolver
}

// NewResolutionService creates the facade. Either route may be nil, in
// which case requests for it fail.
func NewResolutionService(pages PageResolver, search SearchResolver) *ResolutionService {
	return &ResolutionService{pages: pages, search: search}
}

// Resolve picks a route based on which input is present
func (s *ResolutionService) Resolve(ctx context.Context, name, link string) models.Resolution {
	query, err := models.NewQuery(name, link)
	if err != nil {
		log.Printf("❌ Rejected resolution: %v", err)
		return models.Failed(err.Error())
	}

	start := time.Now()
	log.Printf("🔍 Resolving %s %q", query.Kind, query.Value)

	var res models.Resolution
	switch query.Kind {
	case models.QueryDirectLink:
		if s.pages == nil {
			return models.Failed("direct extraction unavailable")
		}
		res = s.pages.ResolvePage(ctx, query.Value)
	default:
		if s.search == nil {
			return models.Failed("search unavailable")
		}
		res = s.search.Resolve(ctx, query.Value)
	}

	switch res.Status {
	case models.ResolutionFound:
		log.Printf("✅ Resolved %q to %s in %v", query.Value, res.Price, time.Since(start))
	case models.ResolutionNotFound:
		log.Printf("🔍 Nothing found for %q after %v", query.Value, time.Since(start))
	default:
		log.Printf("❌ Resolution of %q failed after %v: %s", query.Value, time.Since(start), res.Reason)
	}
	return res
}
