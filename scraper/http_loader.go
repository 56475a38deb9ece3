package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// HTTPLoader fetches pages with a plain GET and parses them with goquery.
// No JavaScript runs, so it only sees server-rendered markup.
type HTTPLoader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPLoader creates a loader with a cookie jar and a hard timeout
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Printf("Failed to create cookie jar: %v", err)
	}

	return &HTTPLoader{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}
}

func (l *HTTPLoader) Name() string {
	return "http"
}

// Load performs a GET and parses the body, decoding legacy charsets
func (l *HTTPLoader) Load(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}

	return NewHTMLDocumentFromReader(resp.Request.URL.String(), body)
}

func (l *HTTPLoader) Close() error {
	l.client.CloseIdleConnections()
	return nil
}
