package repository_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"costbook/database"
	"costbook/models"
	"costbook/repository"
)

func openTestDB(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotes.db")
	if err := database.InitDatabase(path); err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() { _ = database.CloseDatabase() })
	if err := database.CreateTables(); err != nil {
		t.Fatalf("create tables: %v", err)
	}
}

func TestQuoteRepository_AddAndHistory(t *testing.T) {
	openTestDB(t)
	repo := repository.NewQuoteRepository()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	quotes := []models.Quote{
		{ProductName: "Widget", Price: 500, Currency: "NPR", SourceURL: "https://shop/x", Via: "selector:.pdp-price", Query: "https://shop/x", CheckedAt: base},
		{ProductName: "Widget", Price: 450, Currency: "NPR", SourceURL: "https://shop/x", Via: "selector:.pdp-price", Query: "https://shop/x", CheckedAt: base.Add(time.Hour)},
		{ProductName: "Gadget", Price: 99.5, Currency: "NPR", SourceURL: "https://shop/y", Via: "search:bing", Query: "gadget", CheckedAt: base.Add(2 * time.Hour)},
	}
	for i := range quotes {
		if err := repo.AddQuote(&quotes[i]); err != nil {
			t.Fatalf("add quote %d: %v", i, err)
		}
		if quotes[i].ID == 0 {
			t.Fatalf("quote %d has no id", i)
		}
	}

	history, err := repo.History("https://shop/x", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Price != 450 || history[1].Price != 500 {
		t.Fatalf("history not newest first: %+v", history)
	}

	all, err := repo.History("", 2)
	if err != nil {
		t.Fatalf("all history: %v", err)
	}
	if len(all) != 2 || all[0].ProductName != "Gadget" {
		t.Fatalf("all = %+v", all)
	}

	latest, err := repo.LatestQuote("https://shop/y")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Price != 99.5 || latest.Via != "search:bing" || !latest.CheckedAt.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestQuoteRepository_LatestMissing(t *testing.T) {
	openTestDB(t)
	repo := repository.NewQuoteRepository()

	if _, err := repo.LatestQuote("https://nowhere"); !errors.Is(err, repository.ErrQuoteNotFound) {
		t.Fatalf("err = %v, want ErrQuoteNotFound", err)
	}
}
