package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"costbook/models"
	"costbook/scraper"

	"golang.org/x/time/rate"
)

// APIEndpoint describes a JSON search API
type APIEndpoint struct {
	Name     string
	BuildURL func(query string) string
	Decode   func(body io.Reader) ([]models.Candidate, error)
}

var (
	googleCSEBase = "https://www.googleapis.com/customsearch/v1"
	serpAPIBase   = "https://serpapi.com/search.json"
)

// GoogleCSE is the Google Custom Search JSON API
func GoogleCSE(key, cx string) APIEndpoint {
	return APIEndpoint{
		Name: "google_cse",
		BuildURL: func(query string) string {
			v := url.Values{}
			v.Set("key", key)
			v.Set("cx", cx)
			v.Set("q", query)
			return googleCSEBase + "?" + v.Encode()
		},
		Decode: DecodeGoogleCSE,
	}
}

// SerpAPI is serpapi.com's Google engine
func SerpAPI(key string) APIEndpoint {
	return APIEndpoint{
		Name: "serpapi",
		BuildURL: func(query string) string {
			v := url.Values{}
			v.Set("engine", "google")
			v.Set("q", query)
			v.Set("api_key", key)
			return serpAPIBase + "?" + v.Encode()
		},
		Decode: DecodeSerpAPI,
	}
}

type apiResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// DecodeGoogleCSE reads items[].{title,link,snippet}
func DecodeGoogleCSE(body io.Reader) ([]models.Candidate, error) {
	var resp struct {
		Items []apiResult `json:"items"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return toCandidates(resp.Items, "google_cse"), nil
}

// DecodeSerpAPI reads organic_results[].{title,link,snippet}
func DecodeSerpAPI(body io.Reader) ([]models.Candidate, error) {
	var resp struct {
		Error          string      `json:"error"`
		OrganicResults []apiResult `json:"organic_results"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", resp.Error)
	}
	return toCandidates(resp.OrganicResults, "serpapi"), nil
}

func toCandidates(results []apiResult, provider string) []models.Candidate {
	out := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, models.Candidate{
			Title:    strings.TrimSpace(r.Title),
			Snippet:  scraper.CleanText(r.Snippet),
			URL:      r.Link,
			Provider: provider,
		})
	}
	return out
}

// APIProvider queries a structured search API and keeps only entries whose
// snippet carries a price
type APIProvider struct {
	endpoint   APIEndpoint
	client     *http.Client
	limiter    *rate.Limiter
	parser     *scraper.PriceParser
	maxResults int
}

// NewAPIProvider creates a throttled API provider. ratePerMinute <= 0 means
// unthrottled.
func NewAPIProvider(endpoint APIEndpoint, client *http.Client, ratePerMinute int, parser *scraper.PriceParser, maxResults int) *APIProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if parser == nil {
		parser = scraper.NewPriceParser()
	}

	limit := rate.Inf
	if ratePerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(ratePerMinute))
	}

	return &APIProvider{
		endpoint:   endpoint,
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
		parser:     parser,
		maxResults: maxResults,
	}
}

func (p *APIProvider) Name() string {
	return p.endpoint.Name
}

// Search returns up to maxResults priced candidates
func (p *APIProvider) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, wrapProvider(p.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint.BuildURL(query), nil)
	if err != nil {
		return nil, wrapProvider(p.Name(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, wrapProvider(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, wrapProvider(p.Name(), fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	candidates, err := p.endpoint.Decode(resp.Body)
	if err != nil {
		return nil, wrapProvider(p.Name(), err)
	}

	var priced []models.Candidate
	for _, c := range candidates {
		if !p.parser.HasCurrencyToken(c.Snippet) {
			continue
		}
		c.Provider = p.Name()
		priced = append(priced, c)
		if p.maxResults > 0 && len(priced) >= p.maxResults {
			break
		}
	}

	log.Printf("🔍 %s returned %d results, %d with a price", p.Name(), len(candidates), len(priced))
	return priced, nil
}
