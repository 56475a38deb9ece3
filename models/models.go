package models

import (
	"time"
)

// Quote is one recorded price observation for a product page
type Quote struct {
	ID          int       `json:"id" db:"id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Price       float64   `json:"price" db:"price"`
	Currency    string    `json:"currency" db:"currency"`
	SourceURL   string    `json:"source_url" db:"source_url"`
	Via         string    `json:"via" db:"via"`
	Query       string    `json:"query" db:"query"`
	CheckedAt   time.Time `json:"checked_at" db:"checked_at"`
}

// QuoteFromResolution builds a quote for a Found resolution
func QuoteFromResolution(res Resolution, query, currency string) Quote {
	return Quote{
		ProductName: res.Name,
		Price:       res.Price.Float64(),
		Currency:    currency,
		SourceURL:   res.Source,
		Via:         res.Via,
		Query:       query,
		CheckedAt:   time.Now(),
	}
}

// PriceChange describes drift between a line item and a fresh quote
type PriceChange struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	OldPrice float64 `json:"old_price"`
	NewPrice float64 `json:"new_price"`
}

// Percent returns the relative change in percent
func (c PriceChange) Percent() float64 {
	if c.OldPrice <= 0 {
		return 0
	}
	return ((c.NewPrice - c.OldPrice) / c.OldPrice) * 100
}

// Dropped reports whether the price went down
func (c PriceChange) Dropped() bool {
	return c.NewPrice < c.OldPrice
}
