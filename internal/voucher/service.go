package voucher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/events"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/store"
)

type storeProvider interface {
	CreateVoucher(ctx context.Context, input store.VoucherInput) (store.Voucher, error)
	GetVoucherByCode(ctx context.Context, code string) (store.Voucher, error)
	ListVouchers(ctx context.Context) ([]store.Voucher, error)
	MarkVoucherRedeemed(ctx context.Context, id string, at time.Time) (bool, error)
}

type packageProvider interface {
	PackagePrice(ctx context.Context, id string) (pricing.Money, error)
}

// Service issues and redeems gift vouchers. A voucher carries either a package
// reference, priced at issue time, or a fixed amount.
type Service struct {
	store    storeProvider
	packages packageProvider
	bus      *events.Bus
	now      func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    storeProvider
	Packages packageProvider
	Bus      *events.Bus
	Now      func() time.Time
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("voucher: store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{store: cfg.Store, packages: cfg.Packages, bus: cfg.Bus, now: now}, nil
}

// Item is the API shape of a voucher.
type Item struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	PackageID  *string       `json:"packageId,omitempty"`
	Amount     pricing.Money `json:"amount"`
	Note       string        `json:"note,omitempty"`
	ValidFrom  *time.Time    `json:"validFrom,omitempty"`
	ValidTo    *time.Time    `json:"validTo,omitempty"`
	RedeemedAt *time.Time    `json:"redeemedAt,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// CreateInput carries a new voucher request.
type CreateInput struct {
	PackageID *string
	Amount    pricing.Money
	Note      string
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// Create issues a voucher. Package vouchers freeze the package price at issue
// time so later catalog edits do not change what the customer paid for.
func (s *Service) Create(ctx context.Context, input CreateInput) (Item, error) {
	amount := input.Amount
	if input.PackageID != nil {
		if s.packages == nil {
			return Item{}, common.Validation("packageId", "package vouchers are not enabled")
		}
		price, err := s.packages.PackagePrice(ctx, *input.PackageID)
		if err != nil {
			return Item{}, translateErr(err, "package")
		}
		amount = price
	}
	if amount <= 0 {
		return Item{}, common.Validation("amount", "voucher amount must be positive")
	}
	if input.ValidFrom != nil && input.ValidTo != nil && input.ValidTo.Before(*input.ValidFrom) {
		return Item{}, common.Validation("validTo", "validTo must not precede validFrom")
	}

	row, err := s.store.CreateVoucher(ctx, store.VoucherInput{
		Code:      NewCode(),
		PackageID: input.PackageID,
		Amount:    amount,
		Note:      input.Note,
		ValidFrom: input.ValidFrom,
		ValidTo:   input.ValidTo,
	})
	if err != nil {
		return Item{}, translateErr(err, "voucher")
	}
	if s.bus != nil {
		_, _ = s.bus.Emit(ctx, events.TopicVoucherCreated, row.ID, map[string]any{"code": row.Code})
	}
	return toItem(row), nil
}

// List returns all vouchers, newest first.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	rows, err := s.store.ListVouchers(ctx)
	if err != nil {
		return nil, translateErr(err, "voucher")
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	return items, nil
}

// Check looks a voucher up by code and reports its redeemability without
// consuming it.
func (s *Service) Check(ctx context.Context, code string) (Item, error) {
	row, err := s.store.GetVoucherByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Item{}, translateErr(err, "voucher")
	}
	if err := ruleOf(row).Validate(s.now()); err != nil {
		return toItem(row), redemptionErr(err)
	}
	return toItem(row), nil
}

// Redeem consumes a voucher exactly once. A concurrent second redemption loses
// at the storage layer and reports a conflict.
func (s *Service) Redeem(ctx context.Context, code string) (Item, error) {
	row, err := s.store.GetVoucherByCode(ctx, NormalizeCode(code))
	if err != nil {
		return Item{}, translateErr(err, "voucher")
	}
	now := s.now()
	if err := ruleOf(row).Validate(now); err != nil {
		return Item{}, redemptionErr(err)
	}
	ok, err := s.store.MarkVoucherRedeemed(ctx, row.ID, now)
	if err != nil {
		return Item{}, translateErr(err, "voucher")
	}
	if !ok {
		return Item{}, redemptionErr(ErrRedeemed)
	}
	row.RedeemedAt = &now
	if s.bus != nil {
		_, _ = s.bus.Emit(ctx, events.TopicVoucherRedeemed, row.ID, map[string]any{"code": row.Code})
	}
	return toItem(row), nil
}

func ruleOf(row store.Voucher) Rule {
	return Rule{
		Code:       row.Code,
		ValidFrom:  row.ValidFrom,
		ValidTo:    row.ValidTo,
		RedeemedAt: row.RedeemedAt,
	}
}

func toItem(row store.Voucher) Item {
	return Item{
		ID:         row.ID,
		Code:       row.Code,
		PackageID:  row.PackageID,
		Amount:     row.Amount,
		Note:       row.Note,
		ValidFrom:  row.ValidFrom,
		ValidTo:    row.ValidTo,
		RedeemedAt: row.RedeemedAt,
		CreatedAt:  row.CreatedAt,
	}
}

func redemptionErr(err error) error {
	switch {
	case errors.Is(err, ErrRedeemed):
		return &common.AppError{Code: common.CodeConflict, Message: "voucher already redeemed", HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, ErrExpired):
		return &common.AppError{Code: common.CodeConflict, Message: "voucher expired", HTTPStatus: http.StatusConflict, Err: err}
	case errors.Is(err, ErrNotYetValid):
		return &common.AppError{Code: common.CodeConflict, Message: "voucher not yet valid", HTTPStatus: http.StatusConflict, Err: err}
	default:
		return err
	}
}

func translateErr(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound(resource)
	}
	if common.IsAppError(err) {
		return err
	}
	return &common.AppError{Code: common.CodeInternal, Message: "voucher storage failure", HTTPStatus: http.StatusInternalServerError, Err: err}
}
