package search_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"costbook/config"
	"costbook/search"
)

const bingResults = `<html><body><ol id="b_results">
	<li class="b_algo"><h2><a href="https://shop.example/one">Widget One</a></h2>
		<div class="b_caption"><p>Widget One Rs. 1,200 free delivery</p></div></li>
	<li class="b_algo"><h2><a href="https://shop.example/two">Widget Two</a></h2>
		<div class="b_caption"><p>Widget Two in stock</p></div></li>
	<li class="b_algo"><h2><a href="https://shop.example/three">Widget Three</a></h2></li>
	<li class="b_algo"><h2><a href="https://shop.example/four">Widget Four</a></h2></li>
</ol></body></html>`

func bingURL(query string) string {
	engine, _ := search.EngineByName("bing")
	return strings.Replace(engine.QueryURL, "%s", url.QueryEscape(query), 1)
}

func TestRenderedProvider_ReadsEntries(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{bingURL("widget"): bingResults}}
	engine, _ := search.EngineByName("bing")

	p := search.NewRenderedProvider(engine, loader, time.Second, 3)
	got, err := p.Search(context.Background(), "widget")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates (max results), got %d", len(got))
	}
	if got[0].URL != "https://shop.example/one" || got[0].Title != "Widget One" {
		t.Fatalf("first = %+v", got[0])
	}
	if !strings.Contains(got[0].Snippet, "Rs. 1,200") {
		t.Fatalf("snippet = %q", got[0].Snippet)
	}
	if got[2].Snippet != "" || got[2].URL == "" {
		t.Fatalf("third = %+v", got[2])
	}
}

func TestRenderedProvider_NoContainerIsNoResults(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		bingURL("widget"): `<html><body>` + strings.Repeat("<p>Nothing to see here.</p>", 80) + `</body></html>`,
	}}
	engine, _ := search.EngineByName("bing")

	_, err := search.NewRenderedProvider(engine, loader, time.Second, 3).Search(context.Background(), "widget")
	if !errors.Is(err, search.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestRenderedProvider_BlockPageFails(t *testing.T) {
	loader := &fakeLoader{pages: map[string]string{
		bingURL("widget"): `<html><body><p>Our systems have detected unusual traffic from your computer network.</p></body></html>`,
	}}
	engine, _ := search.EngineByName("bing")

	_, err := search.NewRenderedProvider(engine, loader, time.Second, 3).Search(context.Background(), "widget")
	if err == nil || errors.Is(err, search.ErrNoResults) {
		t.Fatalf("expected a block failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderedProvider_UnwrapsRedirectLinks(t *testing.T) {
	engine, _ := search.EngineByName("duckduckgo")
	page := `<html><body><div id="links"><div class="result">
		<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fshop.example%2Fw&rut=x">Widget</a>
		<a class="result__snippet">Widget NPR 800</a>
	</div></div></body></html>`
	target := strings.Replace(engine.QueryURL, "%s", url.QueryEscape("widget"), 1)
	loader := &fakeLoader{pages: map[string]string{target: page}}

	got, err := search.NewRenderedProvider(engine, loader, time.Second, 3).Search(context.Background(), "widget")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://shop.example/w" {
		t.Fatalf("got %+v", got)
	}
}

func TestAPIProvider_FiltersUnpricedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "widget" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Widget A","link":"https://a.example","snippet":"Widget A reviews"},
			{"title":"Widget B","link":"https://b.example","snippet":"Buy Widget B for Rs. 950"}
		]}`))
	}))
	defer srv.Close()

	endpoint := search.APIEndpoint{
		Name:     "test_cse",
		BuildURL: func(q string) string { return srv.URL + "?q=" + url.QueryEscape(q) },
		Decode:   search.DecodeGoogleCSE,
	}
	p := search.NewAPIProvider(endpoint, srv.Client(), 0, nil, 3)

	got, err := p.Search(context.Background(), "widget")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://b.example" || got[0].Provider != "test_cse" {
		t.Fatalf("got %+v", got)
	}
}

func TestAPIProvider_HTTPErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	endpoint := search.APIEndpoint{
		Name:     "serp",
		BuildURL: func(string) string { return srv.URL },
		Decode:   search.DecodeSerpAPI,
	}
	if _, err := search.NewAPIProvider(endpoint, srv.Client(), 60, nil, 3).Search(context.Background(), "x"); err == nil {
		t.Fatal("expected an error for HTTP 429")
	}
}

func TestDecodeSerpAPI(t *testing.T) {
	got, err := search.DecodeSerpAPI(strings.NewReader(`{"organic_results":[{"title":"T","link":"L","snippet":"  NRs 1  "}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Snippet != "NRs 1" || got[0].URL != "L" {
		t.Fatalf("got %+v", got)
	}

	if _, err := search.DecodeSerpAPI(strings.NewReader(`{"error":"Invalid API key"}`)); err == nil {
		t.Fatal("expected API error")
	}
}

func TestBuildProviders_Order(t *testing.T) {
	cfg := &config.SearchConfig{
		GoogleCSEKey: "k",
		GoogleCSECX:  "cx",
		Engines:      []string{"duckduckgo", "altavista", "google"},
		MaxResults:   3,
		WaitTimeout:  time.Second,
	}

	providers := search.BuildProviders(cfg, nil, &fakeLoader{}, nil)

	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	want := "google_cse,duckduckgo,google"
	if strings.Join(names, ",") != want {
		t.Fatalf("providers = %v, want %s", names, want)
	}
}
