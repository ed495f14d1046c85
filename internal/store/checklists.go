package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Checklist is a named task list for a detailing job type.
type Checklist struct {
	ID        string
	Name      string
	Items     []ChecklistItem
	CreatedAt time.Time
}

// ChecklistItem is one task on a checklist.
type ChecklistItem struct {
	ID       string
	Label    string
	Done     bool
	Position int
}

// CreateChecklist inserts an empty named checklist.
func (s *Store) CreateChecklist(ctx context.Context, name string) (Checklist, error) {
	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO checklists (name) VALUES ($1) RETURNING id, created_at`,
		name).Scan(&id, &createdAt)
	if err != nil {
		return Checklist{}, fmt.Errorf("insert checklist: %w", err)
	}
	return Checklist{ID: uuidString(id), Name: name, CreatedAt: timeValue(createdAt)}, nil
}

// GetChecklist loads one checklist with items in position order.
func (s *Store) GetChecklist(ctx context.Context, id string) (Checklist, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Checklist{}, ErrNotFound
	}
	var (
		cid       pgtype.UUID
		createdAt pgtype.Timestamptz
		list      Checklist
	)
	err = s.Pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM checklists WHERE id = $1`, uid).
		Scan(&cid, &list.Name, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Checklist{}, ErrNotFound
		}
		return Checklist{}, fmt.Errorf("get checklist: %w", err)
	}
	list.ID = uuidString(cid)
	list.CreatedAt = timeValue(createdAt)

	rows, err := s.Pool.Query(ctx, `
		SELECT id, label, done, position
		FROM checklist_items WHERE checklist_id = $1 ORDER BY position`, uid)
	if err != nil {
		return Checklist{}, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemID pgtype.UUID
			item   ChecklistItem
		)
		if err := rows.Scan(&itemID, &item.Label, &item.Done, &item.Position); err != nil {
			return Checklist{}, fmt.Errorf("scan checklist item: %w", err)
		}
		item.ID = uuidString(itemID)
		list.Items = append(list.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Checklist{}, fmt.Errorf("list checklist items: %w", err)
	}
	return list, nil
}

// ListChecklists returns all checklists without items, newest first.
func (s *Store) ListChecklists(ctx context.Context) ([]Checklist, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, created_at FROM checklists ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	defer rows.Close()
	var lists []Checklist
	for rows.Next() {
		var (
			id        pgtype.UUID
			createdAt pgtype.Timestamptz
			list      Checklist
		)
		if err := rows.Scan(&id, &list.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan checklist: %w", err)
		}
		list.ID = uuidString(id)
		list.CreatedAt = timeValue(createdAt)
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	return lists, nil
}

// DeleteChecklist removes a checklist; items cascade.
func (s *Store) DeleteChecklist(ctx context.Context, id string) error {
	uid, err := toUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete checklist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddChecklistItem appends an item at the end of the list.
func (s *Store) AddChecklistItem(ctx context.Context, checklistID, label string) (ChecklistItem, error) {
	uid, err := toUUID(checklistID)
	if err != nil {
		return ChecklistItem{}, ErrNotFound
	}
	var itemID pgtype.UUID
	var position int
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO checklist_items (checklist_id, label, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0)
		FROM checklist_items WHERE checklist_id = $1
		RETURNING id, position`,
		uid, label).Scan(&itemID, &position)
	if err != nil {
		return ChecklistItem{}, fmt.Errorf("insert checklist item: %w", err)
	}
	return ChecklistItem{ID: uuidString(itemID), Label: label, Position: position}, nil
}

// ToggleChecklistItem flips the done flag and returns the new value.
func (s *Store) ToggleChecklistItem(ctx context.Context, itemID string) (bool, error) {
	uid, err := toUUID(itemID)
	if err != nil {
		return false, ErrNotFound
	}
	var done bool
	err = s.Pool.QueryRow(ctx, `
		UPDATE checklist_items SET done = NOT done WHERE id = $1 RETURNING done`,
		uid).Scan(&done)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle checklist item: %w", err)
	}
	return done, nil
}

// DeleteChecklistItem removes one item.
func (s *Store) DeleteChecklistItem(ctx context.Context, itemID string) error {
	uid, err := toUUID(itemID)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChecklistPositions rewrites item positions following the given id order.
func (s *Store) SetChecklistPositions(ctx context.Context, checklistID string, orderedItemIDs []string) error {
	uid, err := toUUID(checklistID)
	if err != nil {
		return ErrNotFound
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	for i, raw := range orderedItemIDs {
		itemID, err := toUUID(raw)
		if err != nil {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `
			UPDATE checklist_items SET position = $3
			WHERE id = $1 AND checklist_id = $2`,
			itemID, uid, i); err != nil {
			return fmt.Errorf("set checklist position: %w", err)
		}
	}
	return tx.Commit(ctx)
}
