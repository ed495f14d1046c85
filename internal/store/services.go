package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Variant is a priced sub-choice of a service.
type Variant struct {
	ID       string
	Name     string
	Price    int64
	Position int
}

// Service is a catalog entry row with its variants.
type Service struct {
	ID           string
	Name         string
	Price        int64
	Hourly       bool
	HasVariants  bool
	Subcategory  string
	MainCategory string
	Variants     []Variant
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ServiceInput carries the mutable fields of a service.
type ServiceInput struct {
	Name         string
	Price        int64
	Hourly       bool
	HasVariants  bool
	Subcategory  string
	MainCategory string
	Variants     []Variant
}

// ListServices returns all services with variants attached, ordered by name.
func (s *Store) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, price, hourly, has_variants, subcategory, main_category, created_at, updated_at
		FROM services
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	index := map[string]int{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		index[svc.ID] = len(services)
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	vrows, err := s.Pool.Query(ctx, `
		SELECT id, service_id, name, price, position
		FROM service_variants
		ORDER BY service_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			id, serviceID pgtype.UUID
			v             Variant
		)
		if err := vrows.Scan(&id, &serviceID, &v.Name, &v.Price, &v.Position); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.ID = uuidString(id)
		if i, ok := index[uuidString(serviceID)]; ok {
			services[i].Variants = append(services[i].Variants, v)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	return services, nil
}

// GetService returns one service with its variants.
func (s *Store) GetService(ctx context.Context, id string) (Service, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Service{}, ErrNotFound
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, price, hourly, has_variants, subcategory, main_category, created_at, updated_at
		FROM services WHERE id = $1`, uid)
	svc, err := scanService(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Service{}, ErrNotFound
		}
		return Service{}, err
	}
	vrows, err := s.Pool.Query(ctx, `
		SELECT id, name, price, position
		FROM service_variants WHERE service_id = $1 ORDER BY position`, uid)
	if err != nil {
		return Service{}, fmt.Errorf("list variants: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var (
			vid pgtype.UUID
			v   Variant
		)
		if err := vrows.Scan(&vid, &v.Name, &v.Price, &v.Position); err != nil {
			return Service{}, fmt.Errorf("scan variant: %w", err)
		}
		v.ID = uuidString(vid)
		svc.Variants = append(svc.Variants, v)
	}
	if err := vrows.Err(); err != nil {
		return Service{}, fmt.Errorf("list variants: %w", err)
	}
	return svc, nil
}

// CreateService inserts a service and its variants in one transaction.
func (s *Store) CreateService(ctx context.Context, input ServiceInput) (Service, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Service{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id pgtype.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO services (name, price, hourly, has_variants, subcategory, main_category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		input.Name, input.Price, input.Hourly, input.HasVariants, input.Subcategory, input.MainCategory,
	).Scan(&id)
	if err != nil {
		return Service{}, fmt.Errorf("insert service: %w", err)
	}
	if err := insertVariants(ctx, tx, id, input.Variants); err != nil {
		return Service{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Service{}, err
	}
	return s.GetService(ctx, uuidString(id))
}

// UpdateService replaces the mutable fields and the variant set of a service.
func (s *Store) UpdateService(ctx context.Context, id string, input ServiceInput) (Service, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Service{}, ErrNotFound
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Service{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE services
		SET name = $2, price = $3, hourly = $4, has_variants = $5, subcategory = $6, main_category = $7, updated_at = now()
		WHERE id = $1`,
		uid, input.Name, input.Price, input.Hourly, input.HasVariants, input.Subcategory, input.MainCategory)
	if err != nil {
		return Service{}, fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Service{}, ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM service_variants WHERE service_id = $1`, uid); err != nil {
		return Service{}, fmt.Errorf("clear variants: %w", err)
	}
	if err := insertVariants(ctx, tx, uid, input.Variants); err != nil {
		return Service{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Service{}, err
	}
	return s.GetService(ctx, id)
}

// DeleteService removes a service; variants cascade.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	uid, err := toUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertVariants(ctx context.Context, tx pgx.Tx, serviceID pgtype.UUID, variants []Variant) error {
	for i, v := range variants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO service_variants (service_id, name, price, position)
			VALUES ($1, $2, $3, $4)`,
			serviceID, v.Name, v.Price, i); err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}
	return nil
}

func scanService(row pgx.Row) (Service, error) {
	var (
		id                   pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
		svc                  Service
	)
	if err := row.Scan(&id, &svc.Name, &svc.Price, &svc.Hourly, &svc.HasVariants,
		&svc.Subcategory, &svc.MainCategory, &createdAt, &updatedAt); err != nil {
		return Service{}, err
	}
	svc.ID = uuidString(id)
	svc.CreatedAt = timeValue(createdAt)
	svc.UpdatedAt = timeValue(updatedAt)
	return svc, nil
}
