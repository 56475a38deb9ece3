package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoElement means a selector matched nothing
	ErrNoElement = errors.New("element not found")
	// ErrWaitTimeout means a bounded wait for a selector expired
	ErrWaitTimeout = errors.New("timed out waiting for element")
)

// Element is a handle to one node in a loaded document
type Element interface {
	Text() (string, error)
	// Attr returns the attribute value and whether it exists
	Attr(name string) (string, bool, error)
	FindFirst(selector string) (Element, error)
}

// Document is an already-loaded page. Backends may be a headless browser
// tab or a parsed static response; callers cannot tell the difference.
type Document interface {
	URL() string
	FindFirst(selector string) (Element, error)
	FindAll(selector string, limit int) ([]Element, error)
	// WaitFor blocks until selector matches or timeout expires
	WaitFor(selector string, timeout time.Duration) error
	// Text returns the visible text of the whole page
	Text() (string, error)
	Close() error
}

// Loader fetches or renders a URL into a Document.
// Load must respect ctx and its own upper time bound.
type Loader interface {
	Name() string
	Load(ctx context.Context, url string) (Document, error)
	Close() error
}
