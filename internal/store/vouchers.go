package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Voucher is a gift voucher row. PackageID is nil for fixed-amount vouchers.
type Voucher struct {
	ID         string
	Code       string
	PackageID  *string
	Amount     int64
	Note       string
	ValidFrom  *time.Time
	ValidTo    *time.Time
	RedeemedAt *time.Time
	CreatedAt  time.Time
}

// VoucherInput carries the fields of a new voucher.
type VoucherInput struct {
	Code      string
	PackageID *string
	Amount    int64
	Note      string
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// CreateVoucher inserts a voucher.
func (s *Store) CreateVoucher(ctx context.Context, input VoucherInput) (Voucher, error) {
	var packageID pgtype.UUID
	if input.PackageID != nil {
		pid, err := toUUID(*input.PackageID)
		if err != nil {
			return Voucher{}, ErrNotFound
		}
		packageID = pid
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO vouchers (code, package_id, amount, note, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, code, package_id, amount, note, valid_from, valid_to, redeemed_at, created_at`,
		input.Code, packageID, input.Amount, input.Note,
		toTimestamptz(input.ValidFrom), toTimestamptz(input.ValidTo))
	return scanVoucher(row)
}

// GetVoucherByCode loads one voucher by its redemption code.
func (s *Store) GetVoucherByCode(ctx context.Context, code string) (Voucher, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, code, package_id, amount, note, valid_from, valid_to, redeemed_at, created_at
		FROM vouchers WHERE code = $1`, code)
	v, err := scanVoucher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, ErrNotFound
		}
		return Voucher{}, err
	}
	return v, nil
}

// ListVouchers returns all vouchers, newest first.
func (s *Store) ListVouchers(ctx context.Context) ([]Voucher, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, code, package_id, amount, note, valid_from, valid_to, redeemed_at, created_at
		FROM vouchers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()
	var vouchers []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	return vouchers, nil
}

// MarkVoucherRedeemed stamps redeemed_at once; a second attempt reports false.
func (s *Store) MarkVoucherRedeemed(ctx context.Context, id string, at time.Time) (bool, error) {
	uid, err := toUUID(id)
	if err != nil {
		return false, ErrNotFound
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE vouchers SET redeemed_at = $2
		WHERE id = $1 AND redeemed_at IS NULL`,
		uid, at)
	if err != nil {
		return false, fmt.Errorf("redeem voucher: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanVoucher(row pgx.Row) (Voucher, error) {
	var (
		id, packageID                             pgtype.UUID
		validFrom, validTo, redeemedAt, createdAt pgtype.Timestamptz
		v                                         Voucher
	)
	if err := row.Scan(&id, &v.Code, &packageID, &v.Amount, &v.Note,
		&validFrom, &validTo, &redeemedAt, &createdAt); err != nil {
		return Voucher{}, err
	}
	v.ID = uuidString(id)
	if packageID.Valid {
		pid := uuidString(packageID)
		v.PackageID = &pid
	}
	v.ValidFrom = timePtr(validFrom)
	v.ValidTo = timePtr(validTo)
	v.RedeemedAt = timePtr(redeemedAt)
	v.CreatedAt = timeValue(createdAt)
	return v, nil
}
