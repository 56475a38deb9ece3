package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"costbook/models"
	"costbook/scraper"
)

// Engine describes how to read a search engine's result page
type Engine struct {
	Name string
	// QueryURL has a single %s for the escaped query
	QueryURL  string
	Container string
	Result    string
	Link      string
	Title     string
	Snippets  []string
}

// Engines in default priority order. Adding an engine means appending here.
var Engines = []Engine{
	{
		Name:      "google",
		QueryURL:  "https://www.google.com/search?q=%s",
		Container: "#search",
		Result:    ".tF2Cxc",
		Link:      "a[href]",
		Title:     "h3",
		Snippets:  []string{".VwiC3b", ".IsZvec"},
	},
	{
		Name:      "bing",
		QueryURL:  "https://www.bing.com/search?q=%s",
		Container: "#b_results",
		Result:    "li.b_algo",
		Link:      "h2 a",
		Title:     "h2",
		Snippets:  []string{".b_caption p", ".b_lineclamp2"},
	},
	{
		Name:      "duckduckgo",
		QueryURL:  "https://html.duckduckgo.com/html/?q=%s",
		Container: "#links",
		Result:    ".result",
		Link:      "a.result__a",
		Title:     "a.result__a",
		Snippets:  []string{".result__snippet"},
	},
}

// EngineByName looks up a registered engine
func EngineByName(name string) (Engine, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range Engines {
		if e.Name == name {
			return e, true
		}
	}
	return Engine{}, false
}

// RenderedProvider drives a Loader to an engine's result page
type RenderedProvider struct {
	engine      Engine
	loader      scraper.Loader
	waitTimeout time.Duration
	maxResults  int
	detector    *scraper.BotDetector
}

// NewRenderedProvider creates a provider for engine
func NewRenderedProvider(engine Engine, loader scraper.Loader, waitTimeout time.Duration, maxResults int) *RenderedProvider {
	if waitTimeout <= 0 {
		waitTimeout = 8 * time.Second
	}
	if maxResults <= 0 {
		maxResults = 3
	}
	return &RenderedProvider{
		engine:      engine,
		loader:      loader,
		waitTimeout: waitTimeout,
		maxResults:  maxResults,
		detector:    scraper.NewBotDetector(),
	}
}

func (p *RenderedProvider) Name() string {
	return p.engine.Name
}

// Search loads the result page and reads up to maxResults entries
func (p *RenderedProvider) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	target := fmt.Sprintf(p.engine.QueryURL, url.QueryEscape(query))
	log.Printf("🔍 Searching %s for %q", p.engine.Name, query)

	doc, err := p.loader.Load(ctx, target)
	if err != nil {
		return nil, wrapProvider(p.Name(), err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Printf("Failed to close %s results page: %v", p.engine.Name, err)
		}
	}()

	if err := doc.WaitFor(p.engine.Container, p.waitTimeout); err != nil {
		if !errors.Is(err, scraper.ErrWaitTimeout) {
			return nil, wrapProvider(p.Name(), err)
		}
		text, _ := doc.Text()
		if verdict := p.detector.Inspect(text); verdict.Blocked {
			log.Printf("⚠️ %s served a block page (score %.2f)", p.engine.Name, verdict.Score)
			return nil, wrapProvider(p.Name(), errors.New(verdict.Reason()))
		}
		log.Printf("⏰ %s: no result container within %v", p.engine.Name, p.waitTimeout)
		return nil, wrapProvider(p.Name(), ErrNoResults)
	}

	entries, err := doc.FindAll(p.engine.Result, p.maxResults)
	if err != nil {
		if errors.Is(err, scraper.ErrNoElement) {
			return nil, wrapProvider(p.Name(), ErrNoResults)
		}
		return nil, wrapProvider(p.Name(), err)
	}

	var candidates []models.Candidate
	for _, entry := range entries {
		c, ok := p.readEntry(entry, doc.URL())
		if ok {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// readEntry pulls link, title and snippet from one result. Entries with
// neither a link nor a snippet are dropped.
func (p *RenderedProvider) readEntry(entry scraper.Element, pageURL string) (models.Candidate, bool) {
	c := models.Candidate{Provider: p.engine.Name}

	if a, err := entry.FindFirst(p.engine.Link); err == nil {
		if href, ok, err := a.Attr("href"); err == nil && ok {
			c.URL = normalizeLink(href, pageURL)
		}
	}
	if p.engine.Title != "" {
		if t, err := entry.FindFirst(p.engine.Title); err == nil {
			c.Title, _ = t.Text()
		}
	}

	attempts := make([]scraper.Attempt[string], len(p.engine.Snippets))
	for i, sel := range p.engine.Snippets {
		sel := sel
		attempts[i] = func() (string, bool) {
			el, err := entry.FindFirst(sel)
			if err != nil {
				return "", false
			}
			text, err := el.Text()
			return text, err == nil && text != ""
		}
	}
	c.Snippet, _, _ = scraper.FirstSuccess(attempts...)

	return c, c.URL != "" || c.Snippet != ""
}

// normalizeLink unwraps engine redirect links and resolves relative hrefs
func normalizeLink(href, pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	q := u.Query()
	switch {
	case u.Path == "/url" && q.Get("q") != "":
		return q.Get("q")
	case q.Get("uddg") != "":
		return q.Get("uddg")
	}

	if u.IsAbs() {
		return u.String()
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
