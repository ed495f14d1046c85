package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Package is a fixed-price bundle referencing member services by id.
type Package struct {
	ID         string
	Name       string
	Price      int64
	ServiceIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PackageInput carries the mutable fields of a package.
type PackageInput struct {
	Name       string
	Price      int64
	ServiceIDs []string
}

// ListPackages returns all packages with member service ids in display order.
func (s *Store) ListPackages(ctx context.Context) ([]Package, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM packages
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []Package
	index := map[string]int{}
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		index[pkg.ID] = len(packages)
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	mrows, err := s.Pool.Query(ctx, `
		SELECT package_id, service_id
		FROM package_services
		ORDER BY package_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list package members: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var packageID, serviceID pgtype.UUID
		if err := mrows.Scan(&packageID, &serviceID); err != nil {
			return nil, fmt.Errorf("scan package member: %w", err)
		}
		if i, ok := index[uuidString(packageID)]; ok {
			packages[i].ServiceIDs = append(packages[i].ServiceIDs, uuidString(serviceID))
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("list package members: %w", err)
	}
	return packages, nil
}

// GetPackage returns one package with member service ids.
func (s *Store) GetPackage(ctx context.Context, id string) (Package, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Package{}, ErrNotFound
	}
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, price, created_at, updated_at
		FROM packages WHERE id = $1`, uid)
	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, ErrNotFound
		}
		return Package{}, err
	}
	mrows, err := s.Pool.Query(ctx, `
		SELECT service_id FROM package_services WHERE package_id = $1 ORDER BY position`, uid)
	if err != nil {
		return Package{}, fmt.Errorf("list package members: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var serviceID pgtype.UUID
		if err := mrows.Scan(&serviceID); err != nil {
			return Package{}, fmt.Errorf("scan package member: %w", err)
		}
		pkg.ServiceIDs = append(pkg.ServiceIDs, uuidString(serviceID))
	}
	if err := mrows.Err(); err != nil {
		return Package{}, fmt.Errorf("list package members: %w", err)
	}
	return pkg, nil
}

// CreatePackage inserts a package and its member links transactionally.
func (s *Store) CreatePackage(ctx context.Context, input PackageInput) (Package, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Package{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id pgtype.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO packages (name, price) VALUES ($1, $2) RETURNING id`,
		input.Name, input.Price,
	).Scan(&id)
	if err != nil {
		return Package{}, fmt.Errorf("insert package: %w", err)
	}
	if err := insertPackageMembers(ctx, tx, id, input.ServiceIDs); err != nil {
		return Package{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Package{}, err
	}
	return s.GetPackage(ctx, uuidString(id))
}

// UpdatePackage replaces package fields and the member set.
func (s *Store) UpdatePackage(ctx context.Context, id string, input PackageInput) (Package, error) {
	uid, err := toUUID(id)
	if err != nil {
		return Package{}, ErrNotFound
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Package{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE packages SET name = $2, price = $3, updated_at = now() WHERE id = $1`,
		uid, input.Name, input.Price)
	if err != nil {
		return Package{}, fmt.Errorf("update package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Package{}, ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM package_services WHERE package_id = $1`, uid); err != nil {
		return Package{}, fmt.Errorf("clear package members: %w", err)
	}
	if err := insertPackageMembers(ctx, tx, uid, input.ServiceIDs); err != nil {
		return Package{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Package{}, err
	}
	return s.GetPackage(ctx, id)
}

// DeletePackage removes a package; member links cascade.
func (s *Store) DeletePackage(ctx context.Context, id string) error {
	uid, err := toUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM packages WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertPackageMembers(ctx context.Context, tx pgx.Tx, packageID pgtype.UUID, serviceIDs []string) error {
	for i, raw := range serviceIDs {
		sid, err := toUUID(raw)
		if err != nil {
			return fmt.Errorf("package member %q: %w", raw, ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO package_services (package_id, service_id, position)
			VALUES ($1, $2, $3)`,
			packageID, sid, i); err != nil {
			return fmt.Errorf("insert package member: %w", err)
		}
	}
	return nil
}

func scanPackage(row pgx.Row) (Package, error) {
	var (
		id                   pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
		pkg                  Package
	)
	if err := row.Scan(&id, &pkg.Name, &pkg.Price, &createdAt, &updatedAt); err != nil {
		return Package{}, err
	}
	pkg.ID = uuidString(id)
	pkg.CreatedAt = timeValue(createdAt)
	pkg.UpdatedAt = timeValue(updatedAt)
	return pkg, nil
}
