package cmd

import (
	"context"
	"log"
	"net/http"

	"costbook/config"
	"costbook/database"
	"costbook/models"
	"costbook/repository"
	"costbook/scheduler"
	"costbook/scraper"
	"costbook/search"
	"costbook/services"
)

// app holds the wired pipeline shared by every command
type app struct {
	cfg      *config.AppConfig
	loader   scraper.Loader
	worker   *scheduler.ResolveWorker
	session  *services.Session
	quotes   *repository.QuoteRepository
	requoter *scheduler.Requoter
}

// newApp builds the pipeline from cfg: loader, extractor, search
// providers, facade, cache, worker and session
func newApp(cfg *config.AppConfig) *app {
	a := &app{cfg: cfg}

	if cfg.DatabaseURL != "" {
		if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
			log.Printf("⚠️ Quote history disabled: %v", err)
		} else if err := database.CreateTables(); err != nil {
			log.Printf("⚠️ Quote history disabled: %v", err)
			database.CloseDatabase()
		} else {
			a.quotes = repository.NewQuoteRepository()
		}
	}

	a.loader = scraper.NewLoaderWithFallback(cfg.BrowserBackend, cfg.ChromiumBin, cfg.PageLoadTimeout)

	parser := scraper.NewPriceParser(cfg.CurrencyTokens...)
	extractor := scraper.NewPageExtractor(parser,
		scraper.Strategies(cfg.TitleSelectors...),
		scraper.Strategies(cfg.PriceSelectors...),
	)

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	providers := search.BuildProviders(cfg.Search, client, a.loader, parser)
	orchestrator := search.NewOrchestrator(providers, parser, extractor, a.loader, search.OrchestratorOptions{
		QuerySuffix:  cfg.Search.QuerySuffix,
		ResolveLinks: cfg.Search.ResolveLinks,
	})

	facade := services.NewResolutionService(services.NewPageResolver(extractor, a.loader), orchestrator)
	cached := services.NewCachedResolver(facade, cfg.ResolutionCacheTTL)

	// Re-quotes skip the cache so they always hit the page
	a.worker = scheduler.NewResolveWorker(func(ctx context.Context, req models.ResolveRequest) models.Resolution {
		if req.Kind == models.RequestRequote {
			return facade.Resolve(ctx, req.Name, req.Link)
		}
		return cached.Resolve(ctx, req.Name, req.Link)
	}, 16)

	var store services.QuoteStore
	if a.quotes != nil {
		store = a.quotes
	}
	a.session = services.NewSession(a.worker, store, cfg.CurrencyPrefix)
	a.worker.OnStart(a.session.MarkStarted)

	if cfg.RequoteSchedule != "" {
		a.requoter = scheduler.NewRequoter(cfg.RequoteSchedule, a.session.RequoteRequests, a.worker)
	}
	return a
}

// start launches the worker, the session and the requoter
func (a *app) start() {
	a.worker.Start()
	a.session.Start()
	if a.requoter != nil {
		if err := a.requoter.Start(); err != nil {
			log.Printf("❌ %v", err)
			a.requoter = nil
		}
	}
}

// close stops everything in reverse order
func (a *app) close() {
	if a.requoter != nil {
		a.requoter.Stop()
	}
	a.worker.Stop()
	a.session.Close()
	if err := a.loader.Close(); err != nil {
		log.Printf("Failed to close %s loader: %v", a.loader.Name(), err)
	}
	if err := database.CloseDatabase(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
