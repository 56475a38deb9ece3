package scraper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"costbook/models"
	"costbook/scraper"
)

const productPage = `<html><body>
	<h1>  Widget   Pro </h1>
	<div class="summary"><span class="pdp-price">Rs. 500</span></div>
</body></html>`

func mustDoc(t *testing.T, html string) scraper.Document {
	t.Helper()
	doc, err := scraper.NewHTMLDocument("https://shop.example/x", html)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtract_ThirdStrategyWins(t *testing.T) {
	html := `<html><body><h1>Widget</h1>
		<span class="old-price">sold out</span>
		<span class="price">Rs. 1,250.00</span>
	</body></html>`

	pe := scraper.NewPageExtractor(nil,
		scraper.Strategies("h1"),
		scraper.Strategies(".pdp-price", ".old-price", ".price"),
	)

	res := pe.Extract(mustDoc(t, html))
	if !res.IsFound() {
		t.Fatalf("expected found, got %+v", res)
	}
	if !res.Price.Equal(models.MoneyFromFloat(1250)) {
		t.Fatalf("price = %s, want 1250.00", res.Price)
	}
	if res.Via != "selector:.price" {
		t.Fatalf("via = %q", res.Via)
	}
	if res.Name != "Widget" {
		t.Fatalf("name = %q", res.Name)
	}
}

func TestExtract_FirstHitStops(t *testing.T) {
	html := `<html><body><h1>Widget</h1>
		<span class="pdp-price">Rs. 10</span>
		<span class="price">Rs. 99</span>
	</body></html>`

	pe := scraper.NewPageExtractor(nil,
		scraper.Strategies("h1"),
		scraper.Strategies(".pdp-price", ".price"),
	)
	res := pe.Extract(mustDoc(t, html))
	if !res.Price.Equal(models.MoneyFromFloat(10)) {
		t.Fatalf("price = %s, want 10.00", res.Price)
	}
}

func TestExtract_TitleMissing(t *testing.T) {
	pe := scraper.NewPageExtractor(nil, scraper.Strategies("h1"), scraper.Strategies(".price"))

	res := pe.Extract(mustDoc(t, `<html><body><span class="price">Rs. 5</span></body></html>`))
	if res.Status != models.ResolutionFailed || res.Reason != "title not found" {
		t.Fatalf("got %+v", res)
	}
}

func TestExtract_PriceMissing(t *testing.T) {
	pe := scraper.NewPageExtractor(nil, scraper.Strategies("h1"), scraper.Strategies(".price", "[[bad selector"))

	res := pe.Extract(mustDoc(t, `<html><body><h1>Widget</h1><span class="price">call us</span></body></html>`))
	if res.Status != models.ResolutionFailed || res.Reason != "price not found" {
		t.Fatalf("got %+v", res)
	}
}

func TestExtract_AttributeStrategy(t *testing.T) {
	html := `<html><body><h1>Widget</h1><meta itemprop="price" content="NPR 750"></body></html>`
	pe := scraper.NewPageExtractor(nil,
		scraper.Strategies("h1"),
		[]scraper.SelectorStrategy{{Name: "itemprop", Selector: "[itemprop='price']", Attr: "content"}},
	)

	res := pe.Extract(mustDoc(t, html))
	if !res.IsFound() || !res.Price.Equal(models.MoneyFromFloat(750)) {
		t.Fatalf("got %+v", res)
	}
}

func TestExtractURL_LocalServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	pe := scraper.NewPageExtractor(nil, scraper.Strategies("h1"), scraper.Strategies(".pdp-price"))
	loader := scraper.NewHTTPLoader(5 * time.Second)
	defer loader.Close()

	res := pe.ExtractURL(context.Background(), loader, srv.URL+"/x")
	if !res.IsFound() {
		t.Fatalf("expected found, got %+v", res)
	}
	if res.Name != "Widget Pro" {
		t.Fatalf("name = %q", res.Name)
	}
	if res.Source != srv.URL+"/x" {
		t.Fatalf("source = %q", res.Source)
	}
}

func TestExtractURL_LoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	pe := scraper.NewPageExtractor(nil, scraper.Strategies("h1"), scraper.Strategies(".price"))
	res := pe.ExtractURL(context.Background(), scraper.NewHTTPLoader(time.Second), srv.URL)
	if res.Status != models.ResolutionFailed || !strings.Contains(res.Reason, "load failed") {
		t.Fatalf("got %+v", res)
	}
}

func TestFirstSuccess(t *testing.T) {
	calls := 0
	miss := func() (int, bool) { calls++; return 0, false }
	hit := func() (int, bool) { calls++; return 7, true }
	never := func() (int, bool) { t.Fatal("attempt after a hit must not run"); return 0, false }

	v, idx, ok := scraper.FirstSuccess[int](miss, hit, never)
	if !ok || v != 7 || idx != 1 || calls != 2 {
		t.Fatalf("v=%d idx=%d ok=%v calls=%d", v, idx, ok, calls)
	}

	_, idx, ok = scraper.FirstSuccess[int](miss)
	if ok || idx != -1 {
		t.Fatalf("expected miss, idx=%d ok=%v", idx, ok)
	}
}
