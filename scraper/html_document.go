package scraper

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTMLDocument is a static Document over a parsed HTML response
type HTMLDocument struct {
	url string
	doc *goquery.Document
}

// NewHTMLDocument parses raw HTML into a Document
func NewHTMLDocument(url, html string) (*HTMLDocument, error) {
	return NewHTMLDocumentFromReader(url, strings.NewReader(html))
}

// NewHTMLDocumentFromReader parses HTML from r into a Document
func NewHTMLDocumentFromReader(url string, r io.Reader) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &HTMLDocument{url: url, doc: doc}, nil
}

func (d *HTMLDocument) URL() string {
	return d.url
}

func (d *HTMLDocument) FindFirst(selector string) (Element, error) {
	return findFirst(d.doc.Selection, selector)
}

func (d *HTMLDocument) FindAll(selector string, limit int) ([]Element, error) {
	var out []Element
	d.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = append(out, &htmlElement{sel: s})
		return limit <= 0 || len(out) < limit
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return out, nil
}

// WaitFor on a static document cannot wait for anything: the element is
// either in the response or it never will be.
func (d *HTMLDocument) WaitFor(selector string, _ time.Duration) error {
	if _, err := d.FindFirst(selector); err != nil {
		return fmt.Errorf("%s: %w", selector, ErrWaitTimeout)
	}
	return nil
}

func (d *HTMLDocument) Text() (string, error) {
	return CleanText(d.doc.Find("body").Text()), nil
}

func (d *HTMLDocument) Close() error {
	return nil
}

type htmlElement struct {
	sel *goquery.Selection
}

func (e *htmlElement) Text() (string, error) {
	return CleanText(e.sel.Text()), nil
}

func (e *htmlElement) Attr(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *htmlElement) FindFirst(selector string) (Element, error) {
	return findFirst(e.sel, selector)
}

// findFirst treats a selector goquery cannot compile the same as a miss
func findFirst(root *goquery.Selection, selector string) (Element, error) {
	found := root.Find(selector)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoElement)
	}
	return &htmlElement{sel: found.First()}, nil
}

// CleanText collapses whitespace runs into single spaces
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
