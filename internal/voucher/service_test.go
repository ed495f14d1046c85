package voucher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/store"
)

type fakeVoucherStore struct {
	rows map[string]store.Voucher
	seq  int

	// redeemOnce simulates a lost conditional update when false is queued
	redeemResults []bool
}

func (f *fakeVoucherStore) CreateVoucher(_ context.Context, input store.VoucherInput) (store.Voucher, error) {
	if f.rows == nil {
		f.rows = map[string]store.Voucher{}
	}
	f.seq++
	row := store.Voucher{
		ID:        "v-" + string(rune('0'+f.seq)),
		Code:      input.Code,
		PackageID: input.PackageID,
		Amount:    input.Amount,
		Note:      input.Note,
		ValidFrom: input.ValidFrom,
		ValidTo:   input.ValidTo,
		CreatedAt: time.Now(),
	}
	f.rows[row.ID] = row
	return row, nil
}

func (f *fakeVoucherStore) GetVoucherByCode(_ context.Context, code string) (store.Voucher, error) {
	for _, row := range f.rows {
		if row.Code == code {
			return row, nil
		}
	}
	return store.Voucher{}, store.ErrNotFound
}

func (f *fakeVoucherStore) ListVouchers(_ context.Context) ([]store.Voucher, error) {
	out := make([]store.Voucher, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeVoucherStore) MarkVoucherRedeemed(_ context.Context, id string, at time.Time) (bool, error) {
	if len(f.redeemResults) > 0 {
		ok := f.redeemResults[0]
		f.redeemResults = f.redeemResults[1:]
		if !ok {
			return false, nil
		}
	}
	row, found := f.rows[id]
	if !found {
		return false, nil
	}
	if row.RedeemedAt != nil {
		return false, nil
	}
	row.RedeemedAt = &at
	f.rows[id] = row
	return true, nil
}

type fakePackages struct {
	prices map[string]pricing.Money
}

func (f *fakePackages) PackagePrice(_ context.Context, id string) (pricing.Money, error) {
	price, ok := f.prices[id]
	if !ok {
		return 0, common.NotFound("package")
	}
	return price, nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newVoucherService(t *testing.T, st *fakeVoucherStore, pkgs packageProvider, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: st, Packages: pkgs, Now: fixedClock(now)})
	require.NoError(t, err)
	return svc
}

func TestRuleValidate(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	from := base.Add(-time.Hour)
	to := base.Add(time.Hour)

	require.NoError(t, Rule{ValidFrom: &from, ValidTo: &to}.Validate(base))
	require.ErrorIs(t, Rule{ValidFrom: &to}.Validate(base), ErrNotYetValid)
	require.ErrorIs(t, Rule{ValidTo: &from}.Validate(base), ErrExpired)

	redeemed := base.Add(-time.Minute)
	require.ErrorIs(t, Rule{ValidFrom: &from, ValidTo: &to, RedeemedAt: &redeemed}.Validate(base), ErrRedeemed)

	// open-ended vouchers never expire
	require.NoError(t, Rule{}.Validate(base))
}

func TestNewCodeShape(t *testing.T) {
	code := NewCode()
	require.True(t, strings.HasPrefix(code, "VD-"))
	require.Len(t, code, 16)
	require.Equal(t, code, strings.ToUpper(code))
	require.NotEqual(t, code, NewCode())
}

func TestCreateAmountVoucher(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newVoucherService(t, &fakeVoucherStore{}, nil, now)

	item, err := svc.Create(context.Background(), CreateInput{Amount: 5000, Note: "birthday gift"})
	require.NoError(t, err)
	require.Equal(t, int64(5000), item.Amount)
	require.NotEmpty(t, item.Code)
	require.Nil(t, item.PackageID)
}

func TestCreatePackageVoucherFreezesPrice(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pkgs := &fakePackages{prices: map[string]pricing.Money{"pkg-1": 27000}}
	svc := newVoucherService(t, &fakeVoucherStore{}, pkgs, now)

	pkgID := "pkg-1"
	item, err := svc.Create(context.Background(), CreateInput{PackageID: &pkgID, Amount: 999})
	require.NoError(t, err)
	require.Equal(t, int64(27000), item.Amount)

	// later price edits do not touch the issued voucher
	pkgs.prices["pkg-1"] = 30000
	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(27000), listed[0].Amount)
}

func TestCreateValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newVoucherService(t, &fakeVoucherStore{}, nil, now)

	_, err := svc.Create(context.Background(), CreateInput{Amount: 0})
	requireAppCode(t, err, common.CodeValidation)

	from := now
	to := now.Add(-time.Hour)
	_, err = svc.Create(context.Background(), CreateInput{Amount: 100, ValidFrom: &from, ValidTo: &to})
	requireAppCode(t, err, common.CodeValidation)

	// no package provider configured, so package vouchers are rejected
	missing := "no-such-package"
	_, err = svc.Create(context.Background(), CreateInput{PackageID: &missing})
	requireAppCode(t, err, common.CodeValidation)
}

func TestCreateUnknownPackage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newVoucherService(t, &fakeVoucherStore{}, &fakePackages{}, now)

	missing := "no-such-package"
	_, err := svc.Create(context.Background(), CreateInput{PackageID: &missing})
	requireAppCode(t, err, common.CodeNotFound)
}

func TestRedeemOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeVoucherStore{}
	svc := newVoucherService(t, st, nil, now)

	item, err := svc.Create(context.Background(), CreateInput{Amount: 5000})
	require.NoError(t, err)

	redeemed, err := svc.Redeem(context.Background(), item.Code)
	require.NoError(t, err)
	require.NotNil(t, redeemed.RedeemedAt)
	require.Equal(t, now, *redeemed.RedeemedAt)

	_, err = svc.Redeem(context.Background(), item.Code)
	requireAppCode(t, err, common.CodeConflict)
}

func TestRedeemLostRaceReportsConflict(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeVoucherStore{redeemResults: []bool{false}}
	svc := newVoucherService(t, st, nil, now)

	item, err := svc.Create(context.Background(), CreateInput{Amount: 5000})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), item.Code)
	requireAppCode(t, err, common.CodeConflict)
}

func TestRedeemOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newVoucherService(t, &fakeVoucherStore{}, nil, now)

	from := now.Add(time.Hour)
	item, err := svc.Create(context.Background(), CreateInput{Amount: 5000, ValidFrom: &from})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), item.Code)
	requireAppCode(t, err, common.CodeConflict)
}

func TestCheckDoesNotConsume(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newVoucherService(t, &fakeVoucherStore{}, nil, now)

	item, err := svc.Create(context.Background(), CreateInput{Amount: 5000})
	require.NoError(t, err)

	checked, err := svc.Check(context.Background(), "  "+strings.ToLower(item.Code)+" ")
	require.NoError(t, err)
	require.Nil(t, checked.RedeemedAt)

	_, err = svc.Redeem(context.Background(), item.Code)
	require.NoError(t, err)

	_, err = svc.Check(context.Background(), item.Code)
	requireAppCode(t, err, common.CodeConflict)
}

func requireAppCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}
