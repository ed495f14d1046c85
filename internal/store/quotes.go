package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Quote is a saved selection snapshot.
type Quote struct {
	ID        string
	Label     string
	Selection []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveQuote inserts a quote snapshot and returns the stored row.
func (s *Store) SaveQuote(ctx context.Context, label string, selection []byte) (Quote, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO quotes (label, selection) VALUES ($1, $2)
		RETURNING id, label, selection, created_at, updated_at`,
		label, selection)
	return scanQuote(row)
}

// GetQuote loads one saved quote.
func (s *Store) GetQuote(ctx context.Context, id string) (Quote, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Quote{}, ErrNotFound
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, label, selection, created_at, updated_at
		FROM quotes WHERE id = $1`, uid)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	return q, nil
}

// ListQuotes returns a page of quotes, newest first, with the total count.
func (s *Store) ListQuotes(ctx context.Context, limit, offset int) ([]Quote, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM quotes`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, label, selection, created_at, updated_at
		FROM quotes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, total, nil
}

// DeleteQuote removes a saved quote.
func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	uid, err := toUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (Quote, error) {
	var (
		id                   pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
		q                    Quote
	)
	if err := row.Scan(&id, &q.Label, &q.Selection, &createdAt, &updatedAt); err != nil {
		return Quote{}, err
	}
	q.ID = uuidString(id)
	q.CreatedAt = timeValue(createdAt)
	q.UpdatedAt = timeValue(updatedAt)
	return q, nil
}
