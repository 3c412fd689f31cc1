// Package coupon implements promotional code evaluation and redemption.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the cart amount.
	TypePercentage Type = "percentage"
	// TypeFixedAmount discounts a fixed sum regardless of the cart amount.
	TypeFixedAmount Type = "fixed_amount"
)

// Rejection reasons. Each maps to a distinct step of the evaluation ladder
// and, at the HTTP boundary, to a distinct status code.
var (
	// ErrInvalidInput is returned for an empty code or non-positive amount.
	ErrInvalidInput = errors.New("coupon code and a positive amount are required")
	// ErrNotFound is returned when no matching active coupon exists.
	ErrNotFound = errors.New("coupon not found or inactive")
	// ErrNotYetValidOrExpired is returned outside the coupon's time window.
	ErrNotYetValidOrExpired = errors.New("coupon expired or not yet valid")
	// ErrUsageLimitReached is returned when the global usage limit is exhausted.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrAlreadyUsed is returned when the requester has already redeemed the coupon.
	ErrAlreadyUsed = errors.New("coupon already used by this user")
	// ErrNotApplicable is returned when the computed discount is not positive.
	ErrNotApplicable = errors.New("coupon does not apply to this amount")
)

// MinimumNotMetError rejects a cart below the coupon's minimum purchase
// amount. The minimum is carried so the boundary can report it.
type MinimumNotMetError struct {
	Minimum decimal.Decimal
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum purchase amount of %s not met", e.Minimum)
}

// Coupon is a promotional code as stored. The usage counter is the only
// field this core ever mutates; everything else is managed out-of-band.
type Coupon struct {
	ID                string
	Code              string
	IsActive          bool
	Type              Type
	DiscountValue     decimal.Decimal
	MinPurchaseAmount decimal.Decimal  // zero when unset
	MaxDiscountAmount *decimal.Decimal // nil when unset
	UsageLimit        int              // 0 = unlimited
	UsageCount        int
	UsageLimitPerUser int // 0 = unlimited
	StartsAt          time.Time
	ExpiresAt         time.Time
}

// Quote is the successful result of evaluating a code against an amount.
type Quote struct {
	Code              string
	Type              Type
	Value             decimal.Decimal
	MinPurchase       decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	Discount          decimal.Decimal
}

// Repository provides coupon lookup and redemption facts.
type Repository interface {
	// FindByCode looks up a coupon by case-insensitive code, active or not.
	// Returns ErrNotFound when no row exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// HasRedemption reports whether the user holds a redemption fact for the coupon.
	HasRedemption(ctx context.Context, couponID, userID string) (bool, error)
	// RecordRedemption inserts a redemption fact and increments the coupon's
	// usage counter. The (coupon, user) uniqueness constraint makes the insert
	// the authoritative single-use check; a duplicate returns ErrAlreadyUsed.
	// orderID may be empty when the redemption is not linked to an order.
	RecordRedemption(ctx context.Context, couponID, userID, orderID string) error
}
