package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"costbook/database"
	"costbook/models"
)

var ErrQuoteNotFound = errors.New("quote not found")

type QuoteRepository struct{}

func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{}
}

const quoteColumns = `id, product_name, price, currency, source_url, via, query, checked_at`

// AddQuote records a price observation and sets its ID
func (r *QuoteRepository) AddQuote(quote *models.Quote) error {
	query := database.Rebind(`
		INSERT INTO quotes (product_name, price, currency, source_url, via, query, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := database.DB.QueryRow(query,
		quote.ProductName, quote.Price, quote.Currency, quote.SourceURL,
		quote.Via, quote.Query, quote.CheckedAt.UTC(),
	).Scan(&quote.ID)
	if err != nil {
		return fmt.Errorf("failed to add quote: %w", err)
	}
	return nil
}

// History returns quotes newest first. An empty sourceURL lists every quote.
func (r *QuoteRepository) History(sourceURL string, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if sourceURL == "" {
		rows, err = database.DB.Query(database.Rebind(`
			SELECT `+quoteColumns+`
			FROM quotes
			ORDER BY checked_at DESC, id DESC
			LIMIT ?
		`), limit)
	} else {
		rows, err = database.DB.Query(database.Rebind(`
			SELECT `+quoteColumns+`
			FROM quotes
			WHERE source_url = ?
			ORDER BY checked_at DESC, id DESC
			LIMIT ?
		`), sourceURL, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote history: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quotes: %w", err)
	}

	return quotes, nil
}

// LatestQuote returns the newest quote for a product page
func (r *QuoteRepository) LatestQuote(sourceURL string) (*models.Quote, error) {
	row := database.DB.QueryRow(database.Rebind(`
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE source_url = ?
		ORDER BY checked_at DESC, id DESC
		LIMIT 1
	`), sourceURL)

	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(s scanner) (models.Quote, error) {
	var q models.Quote
	err := s.Scan(&q.ID, &q.ProductName, &q.Price, &q.Currency, &q.SourceURL, &q.Via, &q.Query, &q.CheckedAt)
	return q, err
}
