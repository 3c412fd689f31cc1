package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Service evaluates and redeems coupons against a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Preview evaluates a code against a cart amount without mutating anything.
// requesterID may be empty for anonymous previews; the per-user usage check
// is skipped in that case. Calling Preview repeatedly with the same inputs
// yields identical results.
//
// The rejection ladder, in order: input validation, lookup/active, time
// window (inclusive on both ends), global usage limit, per-user usage,
// minimum purchase, discount applicability.
func (s *Service) Preview(ctx context.Context, code string, amount decimal.Decimal, requesterID string) (*Quote, error) {
	if code == "" || !amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrNotFound
	}

	now := s.now()
	if now.Before(c.StartsAt) || now.After(c.ExpiresAt) {
		return nil, ErrNotYetValidOrExpired
	}

	if c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	if requesterID != "" && c.UsageLimitPerUser > 0 && c.UsageLimitPerUser <= 1 {
		used, err := s.repo.HasRedemption(ctx, c.ID, requesterID)
		if err != nil {
			return nil, errors.Wrap(err, "check prior redemption")
		}
		if used {
			return nil, ErrAlreadyUsed
		}
	}

	if c.MinPurchaseAmount.IsPositive() && amount.LessThan(c.MinPurchaseAmount) {
		return nil, &MinimumNotMetError{Minimum: c.MinPurchaseAmount}
	}

	discount := CalcDiscount(c, amount)
	if !discount.IsPositive() {
		return nil, ErrNotApplicable
	}

	return &Quote{
		Code:              c.Code,
		Type:              c.Type,
		Value:             c.DiscountValue,
		MinPurchase:       c.MinPurchaseAmount,
		MaxDiscountAmount: c.MaxDiscountAmount,
		Discount:          ClampToAmount(discount, amount),
	}, nil
}

// Redeem records that the user has used the coupon, without linking it to an
// order. The preceding read gives a friendly error for the common case, but
// the insert's uniqueness constraint is what actually enforces single use.
func (s *Service) Redeem(ctx context.Context, code, userID string) error {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return ErrNotFound
	}

	used, err := s.repo.HasRedemption(ctx, c.ID, userID)
	if err != nil {
		return errors.Wrap(err, "check prior redemption")
	}
	if used {
		return ErrAlreadyUsed
	}

	return s.repo.RecordRedemption(ctx, c.ID, userID, "")
}

// ResolveCode maps an active coupon code to its id. Used by order placement
// to reference the coupon before the transaction starts.
func (s *Service) ResolveCode(ctx context.Context, code string) (string, error) {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !c.IsActive {
		return "", ErrNotFound
	}
	return c.ID, nil
}

// MarkUsed records a redemption linked to an order. Called best-effort after
// the order transaction commits.
func (s *Service) MarkUsed(ctx context.Context, couponID, userID, orderID string) error {
	return s.repo.RecordRedemption(ctx, couponID, userID, orderID)
}
