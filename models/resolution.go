package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when neither a name nor a link was supplied
var ErrEmptyQuery = errors.New("no query provided")

// QueryKind tells which resolution route a query takes
type QueryKind string

const (
	QueryDirectLink QueryKind = "direct_link"
	QueryNameSearch QueryKind = "name_search"
)

// Query is an immutable user intent: a product page link or a product name
type Query struct {
	Kind  QueryKind `json:"kind"`
	Value string    `json:"value"`
}

// NewQuery trims both inputs. A link always wins over a name.
func NewQuery(name, link string) (Query, error) {
	if link = strings.TrimSpace(link); link != "" {
		return Query{Kind: QueryDirectLink, Value: link}, nil
	}
	if name = strings.TrimSpace(name); name != "" {
		return Query{Kind: QueryNameSearch, Value: name}, nil
	}
	return Query{}, ErrEmptyQuery
}

// Candidate is a single search result entry
type Candidate struct {
	Title    string `json:"title,omitempty"`
	Snippet  string `json:"snippet"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

// ResolutionStatus is the terminal state of a resolution
type ResolutionStatus string

const (
	ResolutionFound    ResolutionStatus = "found"
	ResolutionNotFound ResolutionStatus = "not_found"
	ResolutionFailed   ResolutionStatus = "failed"
)

// Resolution is the terminal outcome of the price-resolution pipeline
type Resolution struct {
	Status ResolutionStatus `json:"status"`
	Name   string           `json:"name,omitempty"`
	Price  Money            `json:"price"`
	Source string           `json:"source,omitempty"`
	Reason string           `json:"reason,omitempty"`
	// Via names the provider or selector strategy that produced the hit
	Via string `json:"via,omitempty"`
}

// Found builds a successful resolution
func Found(name string, price Money, source string) Resolution {
	return Resolution{
		Status: ResolutionFound,
		Name:   strings.TrimSpace(name),
		Price:  price,
		Source: source,
	}
}

// NotFound builds a well-formed negative result
func NotFound() Resolution {
	return Resolution{Status: ResolutionNotFound, Reason: "not found"}
}

// Failed builds an operational failure with a reason
func Failed(reason string) Resolution {
	return Resolution{Status: ResolutionFailed, Reason: reason}
}

// WithVia tags the resolution with the strategy that produced it
func (r Resolution) WithVia(via string) Resolution {
	r.Via = via
	return r
}

// IsFound reports whether the resolution carries a price
func (r Resolution) IsFound() bool {
	return r.Status == ResolutionFound
}
