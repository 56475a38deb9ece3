package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"

	"costbook/models"
)

// SelectorStrategy is one named way of locating text on a page.
// When Attr is set the attribute value is read instead of the element text.
type SelectorStrategy struct {
	Name     string
	Selector string
	Attr     string
}

// Strategies turns plain selectors into strategies named after themselves
func Strategies(selectors ...string) []SelectorStrategy {
	out := make([]SelectorStrategy, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, SelectorStrategy{Name: s, Selector: s})
	}
	return out
}

// PageExtractor reads a product title and price from a loaded page.
// Both selector lists are ordered most specific first; supporting a new
// site layout means appending to them.
type PageExtractor struct {
	parser         *PriceParser
	titleSelectors []SelectorStrategy
	priceSelectors []SelectorStrategy
}

// NewPageExtractor creates an extractor with the given selector chains
func NewPageExtractor(parser *PriceParser, titleSelectors, priceSelectors []SelectorStrategy) *PageExtractor {
	if parser == nil {
		parser = NewPriceParser()
	}
	return &PageExtractor{
		parser:         parser,
		titleSelectors: titleSelectors,
		priceSelectors: priceSelectors,
	}
}

// PriceSelectors returns the configured price chain
func (pe *PageExtractor) PriceSelectors() []SelectorStrategy {
	return append([]SelectorStrategy(nil), pe.priceSelectors...)
}

// Extract returns Found, or Failed with "title not found" / "price not found"
func (pe *PageExtractor) Extract(doc Document) models.Resolution {
	title, ok := pe.extractTitle(doc)
	if !ok {
		return models.Failed("title not found")
	}

	attempts := make([]Attempt[models.Money], len(pe.priceSelectors))
	for i, strategy := range pe.priceSelectors {
		attempts[i] = pe.priceAttempt(doc, strategy)
	}

	price, idx, ok := FirstSuccess(attempts...)
	if !ok {
		log.Printf("❌ No price on %s after %d selectors", doc.URL(), len(pe.priceSelectors))
		return models.Failed("price not found")
	}

	strategy := pe.priceSelectors[idx]
	log.Printf("✅ Found price %s via %s on %s", price, strategy.Name, doc.URL())
	return models.Found(title, price, doc.URL()).WithVia("selector:" + strategy.Name)
}

// ExtractURL loads url and extracts from it. Load failures are reported
// immediately; retrying is the caller's call.
func (pe *PageExtractor) ExtractURL(ctx context.Context, loader Loader, url string) models.Resolution {
	log.Printf("🔍 Loading %s with %s loader", url, loader.Name())

	doc, err := loader.Load(ctx, url)
	if err != nil {
		log.Printf("❌ Failed to load %s: %v", url, err)
		return models.Failed(fmt.Sprintf("load failed: %v", err))
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Printf("Failed to close page %s: %v", url, err)
		}
	}()

	res := pe.Extract(doc)
	if res.IsFound() {
		// Keep the link the user gave us rather than any redirect target
		res.Source = url
	}
	return res
}

func (pe *PageExtractor) extractTitle(doc Document) (string, bool) {
	attempts := make([]Attempt[string], len(pe.titleSelectors))
	for i, strategy := range pe.titleSelectors {
		strategy := strategy
		attempts[i] = func() (string, bool) {
			text, err := readStrategy(doc, strategy)
			if err != nil {
				return "", false
			}
			return text, text != ""
		}
	}
	title, _, ok := FirstSuccess(attempts...)
	return title, ok
}

// priceAttempt wraps one strategy; any selector fault is a soft miss
func (pe *PageExtractor) priceAttempt(doc Document, strategy SelectorStrategy) Attempt[models.Money] {
	return func() (models.Money, bool) {
		text, err := readStrategy(doc, strategy)
		if err != nil {
			return models.Money{}, false
		}
		return pe.parser.Parse(text)
	}
}

func readStrategy(doc Document, strategy SelectorStrategy) (string, error) {
	el, err := doc.FindFirst(strategy.Selector)
	if err != nil {
		return "", err
	}
	if strategy.Attr != "" {
		v, ok, err := el.Attr(strategy.Attr)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%s[%s]: %w", strategy.Selector, strategy.Attr, ErrNoElement)
		}
		return strings.TrimSpace(v), nil
	}
	return el.Text()
}
