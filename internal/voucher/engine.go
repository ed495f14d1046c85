package voucher

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotYetValid is returned when the voucher window has not opened yet.
	ErrNotYetValid = errors.New("voucher not yet valid")
	// ErrExpired is returned when the voucher window has closed.
	ErrExpired = errors.New("voucher expired")
	// ErrRedeemed is returned when the voucher was already used.
	ErrRedeemed = errors.New("voucher already redeemed")
)

// Rule captures the redemption constraints of a gift voucher.
type Rule struct {
	Code       string
	ValidFrom  *time.Time
	ValidTo    *time.Time
	RedeemedAt *time.Time
}

// Validate reports whether the voucher can be redeemed at the given instant.
func (r Rule) Validate(now time.Time) error {
	if r.RedeemedAt != nil {
		return ErrRedeemed
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrNotYetValid
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	return nil
}

// NewCode generates a short redemption code. The code is the uppercased first
// segment pair of a random UUID, unique enough for the volumes of a single
// studio while staying readable over the phone.
func NewCode() string {
	raw := strings.ToUpper(uuid.NewString())
	return "VD-" + raw[:8] + "-" + raw[9:13]
}

// NormalizeCode canonicalizes operator input before lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
