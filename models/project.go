package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrItemNotFound    = errors.New("item not found")
	ErrEmptyName       = errors.New("project name is required")
)

// LineItem is one priced product entry in a project
type LineItem struct {
	ID          string `json:"id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	LineCost    Money  `json:"line_cost"`
	Link        string `json:"link,omitempty"`
}

// NewLineItem computes the line cost from unit price and quantity
func NewLineItem(id, productName string, quantity int, unitPrice Money, link string) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	if id == "" {
		id = uuid.NewString()
	}
	return LineItem{
		ID:          id,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineCost:    unitPrice.Mul(quantity),
		Link:        link,
	}, nil
}

// Project is the in-memory cart. Items keep insertion order.
type Project struct {
	name  string
	items []LineItem
}

// NewProject creates an empty project. The name cannot change afterwards.
func NewProject(name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Project{name: name}, nil
}

// Name returns the project name
func (p *Project) Name() string {
	return p.name
}

// AddItem appends a line item
func (p *Project) AddItem(item LineItem) {
	p.items = append(p.items, item)
}

// Items returns a copy of the items in display order
func (p *Project) Items() []LineItem {
	out := make([]LineItem, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of items
func (p *Project) Len() int {
	return len(p.items)
}

// RemoveAt deletes the item at position pos
func (p *Project) RemoveAt(pos int) (LineItem, error) {
	if pos < 0 || pos >= len(p.items) {
		return LineItem{}, fmt.Errorf("position %d: %w", pos, ErrItemNotFound)
	}
	item := p.items[pos]
	p.items = append(p.items[:pos], p.items[pos+1:]...)
	return item, nil
}

// IndexOf returns the position of the item with the given ID, or -1
func (p *Project) IndexOf(id string) int {
	for i, item := range p.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Clear drops every item but keeps the name
func (p *Project) Clear() {
	p.items = nil
}

// Total is the sum of all line costs
func (p *Project) Total() Money {
	total := Money{}
	for _, item := range p.items {
		total = total.Add(item.LineCost)
	}
	return total
}

// Summary renders the finish-project text listing every item and the total
func (p *Project) Summary(prefix string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project Name: %s\n\n", p.name)
	for _, item := range p.items {
		fmt.Fprintf(&b, "Item: %s\nPrice: %s\nQuantity: %d\nTotal: %s\n\n",
			item.ProductName, item.UnitPrice.Format(prefix), item.Quantity, item.LineCost.Format(prefix))
	}
	fmt.Fprintf(&b, "Total Project Cost: %s", p.Total().Format(prefix))
	return b.String()
}
