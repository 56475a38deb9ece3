package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a queued resolution
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// RequestKind separates user item requests from scheduled re-quotes
type RequestKind string

const (
	RequestItem    RequestKind = "item"
	RequestRequote RequestKind = "requote"
	RequestLookup  RequestKind = "lookup"
)

// ResolveRequest is one unit of work for the resolve worker.
// ID is allocated by the caller and handed back with the result.
type ResolveRequest struct {
	ID          string      `json:"id"`
	Kind        RequestKind `json:"kind"`
	Name        string      `json:"name,omitempty"`
	Link        string      `json:"link,omitempty"`
	Quantity    int         `json:"quantity"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// NewResolveRequest allocates a request with a fresh ID
func NewResolveRequest(name, link string, quantity int) ResolveRequest {
	return ResolveRequest{
		ID:          uuid.NewString(),
		Kind:        RequestItem,
		Name:        name,
		Link:        link,
		Quantity:    quantity,
		SubmittedAt: time.Now(),
	}
}

// ResolveResult is handed back by value once a request completes
type ResolveResult struct {
	RequestID  string         `json:"request_id"`
	Request    ResolveRequest `json:"request"`
	Resolution Resolution     `json:"resolution"`
	Duration   time.Duration  `json:"duration"`
}

// ResolveTask is the display row for a submitted request. A failed
// resolution keeps its row so the user sees the reason.
type ResolveTask struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Link        string     `json:"link,omitempty"`
	Quantity    int        `json:"quantity"`
	Status      TaskStatus `json:"status"`
	Message     string     `json:"message"`
	Item        *LineItem  `json:"item,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewResolveTask creates the "Loading..." row for a request
func NewResolveTask(req ResolveRequest) *ResolveTask {
	return &ResolveTask{
		ID:        req.ID,
		Name:      req.Name,
		Link:      req.Link,
		Quantity:  req.Quantity,
		Status:    TaskStatusQueued,
		Message:   "Loading...",
		CreatedAt: req.SubmittedAt,
	}
}

// Request rebuilds the original request so the row can be resubmitted
func (t *ResolveTask) Request() ResolveRequest {
	return ResolveRequest{
		ID:          t.ID,
		Kind:        RequestItem,
		Name:        t.Name,
		Link:        t.Link,
		Quantity:    t.Quantity,
		SubmittedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *ResolveTask) Start() {
	t.Status = TaskStatusProcessing
	t.Message = "Resolving..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with its line item
func (t *ResolveTask) Complete(item LineItem) {
	t.Status = TaskStatusCompleted
	t.Message = item.ProductName
	t.Item = &item
	t.Error = ""
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed with a reason
func (t *ResolveTask) Fail(reason string) {
	t.Status = TaskStatusFailed
	t.Message = "Error: " + reason
	t.Error = reason
	t.Item = nil
	now := time.Now()
	t.CompletedAt = &now
}

// Requeue resets a finished task to queued for a retry
func (t *ResolveTask) Requeue() {
	t.Status = TaskStatusQueued
	t.Message = "Loading..."
	t.Error = ""
	t.Item = nil
	t.StartedAt = nil
	t.CompletedAt = nil
}

// IsCompleted returns true if the task is in a final state
func (t *ResolveTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still waiting for a result
func (t *ResolveTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns how long the task took
func (t *ResolveTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}

	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}

	return endTime.Sub(*t.StartedAt)
}
