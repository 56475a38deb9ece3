package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"costbook/models"
	"costbook/scheduler"
	"costbook/services"
)

type memQuotes struct {
	mu     sync.Mutex
	quotes []models.Quote
}

func (m *memQuotes) AddQuote(q *models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, *q)
	return nil
}

func (m *memQuotes) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quotes)
}

// byQuery answers from a fixed table keyed by link or name
func byQuery(table map[string]models.Resolution) scheduler.ResolveFunc {
	return func(_ context.Context, req models.ResolveRequest) models.Resolution {
		key := req.Link
		if key == "" {
			key = req.Name
		}
		if res, ok := table[key]; ok {
			return res
		}
		return models.NotFound()
	}
}

func newSession(t *testing.T, resolve scheduler.ResolveFunc, quotes services.QuoteStore) *services.Session {
	t.Helper()
	w := scheduler.NewResolveWorker(resolve, 8)
	s := services.NewSession(w, quotes, "NPR")
	w.OnStart(s.MarkStarted)
	w.Start()
	s.Start()
	t.Cleanup(func() {
		w.Stop()
		s.Close()
	})
	return s
}

func waitIdle(t *testing.T, s *services.Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.WaitIdle(ctx); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
}

func TestSession_EndToEndLink(t *testing.T) {
	quotes := &memQuotes{}
	s := newSession(t, byQuery(map[string]models.Resolution{
		"https://shop/x": models.Found("Widget", models.MoneyFromFloat(500), "https://shop/x"),
	}), quotes)

	if err := s.NewProject("Kitchen"); err != nil {
		t.Fatalf("new project: %v", err)
	}
	row, err := s.Submit("", "https://shop/x", 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if row.Message != "Loading..." {
		t.Fatalf("row message = %q", row.Message)
	}
	waitIdle(t, s)

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("items = %d", len(snap.Items))
	}
	item := snap.Items[0]
	if item.ProductName != "Widget" || item.Quantity != 3 ||
		!item.UnitPrice.Equal(models.MoneyFromFloat(500)) || !item.LineCost.Equal(models.MoneyFromFloat(1500)) {
		t.Fatalf("item = %+v", item)
	}
	if item.ID != row.ID {
		t.Fatalf("item id %s does not match row %s", item.ID, row.ID)
	}
	if !snap.Total.Equal(models.MoneyFromFloat(1500)) || snap.TotalText != "NPR 1500.00" {
		t.Fatalf("total = %s (%s)", snap.Total, snap.TotalText)
	}
	if snap.Rows[0].Status != models.TaskStatusCompleted {
		t.Fatalf("row status = %s", snap.Rows[0].Status)
	}
	if quotes.len() != 1 {
		t.Fatalf("quotes = %d, want 1", quotes.len())
	}
}

func TestSession_FailedResolutionKeepsRow(t *testing.T) {
	s := newSession(t, byQuery(map[string]models.Resolution{
		"https://shop/broken": models.Failed("price not found"),
	}), nil)

	_ = s.NewProject("P")
	row, _ := s.Submit("", "https://shop/broken", 1)
	waitIdle(t, s)

	snap, _ := s.Snapshot()
	if len(snap.Rows) != 1 || len(snap.Items) != 0 {
		t.Fatalf("rows=%d items=%d", len(snap.Rows), len(snap.Items))
	}
	got := snap.Rows[0]
	if got.ID != row.ID || got.Status != models.TaskStatusFailed || got.Message != "Error: price not found" {
		t.Fatalf("row = %+v", got)
	}
}

func TestSession_RetryAndRemove(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	s := newSession(t, func(_ context.Context, req models.ResolveRequest) models.Resolution {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return models.Failed("load failed: timeout")
		}
		return models.Found(req.Name, models.MoneyFromFloat(20), "https://shop/w")
	}, nil)

	_ = s.NewProject("P")
	row, _ := s.Submit("widget", "", 2)
	waitIdle(t, s)

	if _, err := s.Retry("missing"); !errors.Is(err, models.ErrItemNotFound) {
		t.Fatalf("retry missing: %v", err)
	}
	if _, err := s.Retry(row.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	waitIdle(t, s)

	total, _ := s.Total()
	if !total.Equal(models.MoneyFromFloat(40)) {
		t.Fatalf("total = %s", total)
	}
	if _, err := s.Retry(row.ID); !errors.Is(err, services.ErrNotRetryable) {
		t.Fatalf("retry completed row: %v", err)
	}

	if err := s.Remove(row.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	snap, _ := s.Snapshot()
	if len(snap.Rows) != 0 || len(snap.Items) != 0 || !snap.Total.IsZero() {
		t.Fatalf("after remove: %+v", snap)
	}
	if err := s.Remove(row.ID); !errors.Is(err, models.ErrItemNotFound) {
		t.Fatalf("second remove: %v", err)
	}
}

func TestSession_Validation(t *testing.T) {
	s := newSession(t, byQuery(nil), nil)

	if _, err := s.Submit("widget", "", 1); !errors.Is(err, services.ErrNoProject) {
		t.Fatalf("submit without project: %v", err)
	}
	if err := s.NewProject("   "); !errors.Is(err, models.ErrEmptyName) {
		t.Fatalf("empty name: %v", err)
	}
	_ = s.NewProject("P")
	if _, err := s.Submit("widget", "", 0); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Fatalf("zero quantity: %v", err)
	}
	if _, err := s.Submit("", "", 1); !errors.Is(err, models.ErrEmptyQuery) {
		t.Fatalf("empty query: %v", err)
	}
}

func TestSession_SummaryAndClear(t *testing.T) {
	s := newSession(t, byQuery(map[string]models.Resolution{
		"widget": models.Found("widget", models.MoneyFromFloat(250), "https://shop/w"),
	}), nil)

	_ = s.NewProject("Garage")
	_, _ = s.Submit("widget", "", 2)
	waitIdle(t, s)

	summary, err := s.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"Project Name: Garage", "Item: widget", "Quantity: 2", "Total Project Cost: NPR 500.00"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	if reqs := s.RequoteRequests(); len(reqs) != 1 || reqs[0].Kind != models.RequestRequote {
		t.Fatalf("requote requests = %+v", reqs)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	snap, _ := s.Snapshot()
	if snap.Project != "Garage" || len(snap.Items) != 0 || len(snap.Rows) != 0 {
		t.Fatalf("after clear: %+v", snap)
	}
}

func TestSession_NewProjectDropsInFlightResults(t *testing.T) {
	gate := make(chan struct{})
	s := newSession(t, func(_ context.Context, req models.ResolveRequest) models.Resolution {
		<-gate
		return models.Found(req.Name, models.MoneyFromFloat(1), "u")
	}, nil)

	_ = s.NewProject("Old")
	_, _ = s.Submit("widget", "", 1)
	_ = s.NewProject("New")
	close(gate)

	time.Sleep(100 * time.Millisecond)
	snap, _ := s.Snapshot()
	if snap.Project != "New" || len(snap.Items) != 0 {
		t.Fatalf("stale result leaked into the new project: %+v", snap)
	}
}

func TestSession_LookupLeavesProjectAlone(t *testing.T) {
	quotes := &memQuotes{}
	s := newSession(t, byQuery(map[string]models.Resolution{
		"https://shop/x": models.Found("Widget", models.MoneyFromFloat(500), "https://shop/x"),
	}), quotes)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	res, err := s.Lookup(ctx, "", " https://shop/x ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !res.IsFound() || res.Name != "Widget" {
		t.Fatalf("res = %+v", res)
	}
	if quotes.len() != 1 {
		t.Errorf("quotes = %d, want 1", quotes.len())
	}

	res, err = s.Lookup(ctx, "unknown gadget", "")
	if err != nil || res.Status != models.ResolutionNotFound {
		t.Fatalf("name lookup = %+v, %v", res, err)
	}

	if _, err := s.Lookup(ctx, " ", ""); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("empty lookup err = %v", err)
	}

	// No project was started, so lookups must not have created one
	if _, err := s.Snapshot(); !errors.Is(err, services.ErrNoProject) {
		t.Errorf("snapshot err = %v", err)
	}
}

func TestSession_LookupHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s := newSession(t, func(ctx context.Context, req models.ResolveRequest) models.Resolution {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return models.NotFound()
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := s.Lookup(ctx, "widget", ""); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}
