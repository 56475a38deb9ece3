package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"costbook/models"
)

var (
	ErrNoProject     = errors.New("no project started")
	ErrNotRetryable  = errors.New("only failed rows can be retried")
	errSessionClosed = errors.New("session closed")
)

// Queue is the asynchronous side of resolution. Submit must not block.
type Queue interface {
	Submit(req models.ResolveRequest)
	Results() <-chan models.ResolveResult
}

// QuoteStore records price observations
type QuoteStore interface {
	AddQuote(quote *models.Quote) error
}

// Snapshot is a consistent copy of the session state
type Snapshot struct {
	Project   string               `json:"project"`
	Rows      []models.ResolveTask `json:"rows"`
	Items     []models.LineItem    `json:"items"`
	Total     models.Money         `json:"total"`
	TotalText string               `json:"total_text"`
}

// Session owns the project and its display rows. Resolution results arrive
// from the queue by value and are applied here; nothing else mutates the
// project.
type Session struct {
	mu      sync.RWMutex
	project *models.Project
	rows    []*models.ResolveTask

	queue    Queue
	quotes   QuoteStore
	currency string

	// lookups waiting on a reply, by request ID
	waiters map[string]chan models.Resolution

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSession creates a session on top of queue. quotes may be nil.
func NewSession(queue Queue, quotes QuoteStore, currency string) *Session {
	if currency == "" {
		currency = models.DefaultCurrencyPrefix
	}
	return &Session{
		queue:    queue,
		quotes:   quotes,
		currency: currency,
		waiters:  make(map[string]chan models.Resolution),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins applying results from the queue
func (s *Session) Start() {
	go s.applyResults()
}

// Close stops applying results. Idempotent.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Session) applyResults() {
	defer close(s.done)
	results := s.queue.Results()
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return
			}
			s.apply(res)
		case <-s.stopCh:
			return
		}
	}
}

// Currency returns the money prefix used for display and export
func (s *Session) Currency() string {
	return s.currency
}

// NewProject replaces the current project. Results still in flight for the
// old project are dropped when they arrive.
func (s *Session) NewProject(name string) error {
	project, err := models.NewProject(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.project = project
	s.rows = nil
	s.mu.Unlock()

	log.Printf("📝 Started project %q", project.Name())
	return nil
}

// Submit queues a resolution and returns its "Loading..." row
func (s *Session) Submit(name, link string, quantity int) (models.ResolveTask, error) {
	if quantity <= 0 {
		return models.ResolveTask{}, models.ErrInvalidQuantity
	}
	query, err := models.NewQuery(name, link)
	if err != nil {
		return models.ResolveTask{}, err
	}

	req := requestFor(query, quantity)

	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return models.ResolveTask{}, ErrNoProject
	}
	row := models.NewResolveTask(req)
	s.rows = append(s.rows, row)
	snapshot := *row
	s.mu.Unlock()

	s.queue.Submit(req)
	log.Printf("📝 Queued %s (%s) x%d", req.ID, query.Value, quantity)
	return snapshot, nil
}

// Lookup resolves a query through the queue and waits for its result.
// It shares the worker with project rows and never touches the project.
func (s *Session) Lookup(ctx context.Context, name, link string) (models.Resolution, error) {
	query, err := models.NewQuery(name, link)
	if err != nil {
		return models.Resolution{}, err
	}
	req := requestFor(query, 1)
	req.Kind = models.RequestLookup

	reply := make(chan models.Resolution, 1)
	s.mu.Lock()
	s.waiters[req.ID] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.waiters, req.ID)
		s.mu.Unlock()
	}()

	s.queue.Submit(req)
	log.Printf("🔍 Queued lookup %s (%s)", req.ID, query.Value)

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		return models.Resolution{}, ctx.Err()
	case <-s.done:
		return models.Resolution{}, errSessionClosed
	}
}

func requestFor(query models.Query, quantity int) models.ResolveRequest {
	if query.Kind == models.QueryDirectLink {
		return models.NewResolveRequest("", query.Value, quantity)
	}
	return models.NewResolveRequest(query.Value, "", quantity)
}

// Retry resubmits a failed row's query under the same row ID
func (s *Session) Retry(id string) (models.ResolveTask, error) {
	s.mu.Lock()
	row := s.findRow(id)
	if row == nil {
		s.mu.Unlock()
		return models.ResolveTask{}, fmt.Errorf("row %s: %w", id, models.ErrItemNotFound)
	}
	if row.Status != models.TaskStatusFailed {
		s.mu.Unlock()
		return models.ResolveTask{}, fmt.Errorf("row %s is %s: %w", id, row.Status, ErrNotRetryable)
	}
	row.Requeue()
	req := row.Request()
	snapshot := *row
	s.mu.Unlock()

	s.queue.Submit(req)
	log.Printf("🔄 Retrying %s", id)
	return snapshot, nil
}

// Remove deletes a row and its line item, if any
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := -1
	for i, row := range s.rows {
		if row.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("row %s: %w", id, models.ErrItemNotFound)
	}
	s.rows = append(s.rows[:pos], s.rows[pos+1:]...)

	if s.project != nil {
		if idx := s.project.IndexOf(id); idx >= 0 {
			if _, err := s.project.RemoveAt(idx); err != nil {
				return err
			}
		}
	}
	log.Printf("🧹 Removed row %s", id)
	return nil
}

// Clear drops every row and item but keeps the project name
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project == nil {
		return ErrNoProject
	}
	s.project.Clear()
	s.rows = nil
	return nil
}

// MarkStarted flips a queued row to processing
func (s *Session) MarkStarted(req models.ResolveRequest) {
	if req.Kind != models.RequestItem {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.findRow(req.ID); row != nil && row.Status == models.TaskStatusQueued {
		row.Start()
	}
}

// Snapshot returns a copy of the project and rows
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return Snapshot{}, ErrNoProject
	}

	rows := make([]models.ResolveTask, len(s.rows))
	for i, row := range s.rows {
		rows[i] = *row
	}
	total := s.project.Total()
	return Snapshot{
		Project:   s.project.Name(),
		Rows:      rows,
		Items:     s.project.Items(),
		Total:     total,
		TotalText: total.Format(s.currency),
	}, nil
}

// Project returns the project name and a copy of its items
func (s *Session) Project() (string, []models.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return "", nil, ErrNoProject
	}
	return s.project.Name(), s.project.Items(), nil
}

// Total returns the project total
func (s *Session) Total() (models.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return models.Money{}, ErrNoProject
	}
	return s.project.Total(), nil
}

// Summary renders the finish-project text
func (s *Session) Summary() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return "", ErrNoProject
	}
	return s.project.Summary(s.currency), nil
}

// Pending reports how many rows are still waiting for a result
func (s *Session) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.rows {
		if row.IsActive() {
			n++
		}
	}
	return n
}

// WaitIdle blocks until no row is pending or ctx is done
func (s *Session) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return errSessionClosed
		case <-ticker.C:
		}
	}
}

// RequoteRequests builds a re-quote request for every linked item
func (s *Session) RequoteRequests() []models.ResolveRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.project == nil {
		return nil
	}

	var reqs []models.ResolveRequest
	for _, item := range s.project.Items() {
		if item.Link == "" {
			continue
		}
		reqs = append(reqs, models.ResolveRequest{
			ID:          item.ID,
			Kind:        models.RequestRequote,
			Link:        item.Link,
			Quantity:    item.Quantity,
			SubmittedAt: time.Now(),
		})
	}
	return reqs
}

func (s *Session) findRow(id string) *models.ResolveTask {
	for _, row := range s.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (s *Session) apply(result models.ResolveResult) {
	req := result.Request
	res := result.Resolution

	if res.IsFound() {
		s.recordQuote(req, res)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Kind {
	case models.RequestRequote:
		s.applyRequote(req, res)
		return
	case models.RequestLookup:
		if reply, ok := s.waiters[req.ID]; ok {
			reply <- res
			delete(s.waiters, req.ID)
		}
		return
	}

	row := s.findRow(result.RequestID)
	if row == nil {
		log.Printf("Dropping result for %s: row no longer exists", result.RequestID)
		return
	}

	if !res.IsFound() {
		row.Fail(res.Reason)
		log.Printf("❌ Row %s failed: %s", row.ID, res.Reason)
		return
	}

	link := res.Source
	if link == "" {
		link = req.Link
	}
	item, err := models.NewLineItem(row.ID, res.Name, row.Quantity, res.Price, link)
	if err != nil {
		row.Fail(err.Error())
		return
	}
	s.project.AddItem(item)
	row.Complete(item)
	log.Printf("✅ Added %s x%d at %s (total %s)", item.ProductName, item.Quantity,
		item.UnitPrice.Format(s.currency), s.project.Total().Format(s.currency))
}

// applyRequote compares a fresh quote with the item's price. Items keep
// the price they were added with.
func (s *Session) applyRequote(req models.ResolveRequest, res models.Resolution) {
	if !res.IsFound() {
		log.Printf("⚠️ Re-quote for %s failed: %s", req.Link, res.Reason)
		return
	}
	if s.project == nil {
		return
	}
	idx := s.project.IndexOf(req.ID)
	if idx < 0 {
		return
	}
	item := s.project.Items()[idx]
	if item.UnitPrice.Equal(res.Price) {
		return
	}

	change := models.PriceChange{
		ItemID:   item.ID,
		Name:     item.ProductName,
		OldPrice: item.UnitPrice.Float64(),
		NewPrice: res.Price.Float64(),
	}
	if change.Dropped() {
		log.Printf("📉 Price DROPPED for %s: %s → %s (%.1f%%)", change.Name,
			item.UnitPrice.Format(s.currency), res.Price.Format(s.currency), change.Percent())
	} else {
		log.Printf("📈 Price INCREASED for %s: %s → %s (+%.1f%%)", change.Name,
			item.UnitPrice.Format(s.currency), res.Price.Format(s.currency), change.Percent())
	}
}

func (s *Session) recordQuote(req models.ResolveRequest, res models.Resolution) {
	if s.quotes == nil {
		return
	}
	query := req.Link
	if query == "" {
		query = req.Name
	}
	quote := models.QuoteFromResolution(res, query, s.currency)
	if err := s.quotes.AddQuote(&quote); err != nil {
		log.Printf("Failed to record quote for %s: %v", res.Source, err)
	}
}
