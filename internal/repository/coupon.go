package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/artesa-market/internal/domain/coupon"
)

const (
	findCouponByCodeSQL = `SELECT id, code, is_active, type, discount_value,
		min_purchase_amount, max_discount_amount,
		usage_limit, usage_count, usage_limit_per_user,
		starts_at, expires_at
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	hasRedemptionSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2)`

	insertRedemptionSQL = `INSERT INTO coupon_redemptions (coupon_id, user_id, order_id)
		VALUES ($1, $2, $3)`

	incrementUsageSQL = `UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for a unique constraint breach.
const uniqueViolation = "23505"

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code (case-insensitive), active or not.
// Returns coupon.ErrNotFound when no row exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, findCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// HasRedemption reports whether a redemption fact exists for (coupon, user).
func (r *CouponRepository) HasRedemption(ctx context.Context, couponID, userID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasRedemptionSQL, couponID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking redemption for coupon %q: %w", couponID, err)
	}
	return exists, nil
}

// RecordRedemption inserts the redemption fact and increments the coupon's
// usage counter in one transaction. The UNIQUE (coupon_id, user_id)
// constraint makes the insert the authoritative single-use check; a
// duplicate maps to coupon.ErrAlreadyUsed.
func (r *CouponRepository) RecordRedemption(ctx context.Context, couponID, userID, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning redemption tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var orderRef *string
	if orderID != "" {
		orderRef = &orderID
	}

	if _, err := tx.Exec(ctx, insertRedemptionSQL, couponID, userID, orderRef); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return coupon.ErrAlreadyUsed
		}
		return fmt.Errorf("inserting redemption for coupon %q: %w", couponID, err)
	}

	if _, err := tx.Exec(ctx, incrementUsageSQL, couponID); err != nil {
		return fmt.Errorf("incrementing usage for coupon %q: %w", couponID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing redemption for coupon %q: %w", couponID, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c           coupon.Coupon
		kind        string
		minPurchase *decimal.Decimal
		maxDiscount *decimal.Decimal
		usageLimit  *int32
		usageCount  int32
		perUser     *int32
		startsAt    time.Time
		expiresAt   time.Time
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.IsActive, &kind, &c.DiscountValue,
		&minPurchase, &maxDiscount,
		&usageLimit, &usageCount, &perUser,
		&startsAt, &expiresAt,
	)
	c.Type = coupon.Type(kind)
	if minPurchase != nil {
		c.MinPurchaseAmount = *minPurchase
	}
	c.MaxDiscountAmount = maxDiscount
	if usageLimit != nil {
		c.UsageLimit = int(*usageLimit)
	}
	c.UsageCount = int(usageCount)
	if perUser != nil {
		c.UsageLimitPerUser = int(*perUser)
	}
	c.StartsAt = startsAt
	c.ExpiresAt = expiresAt
	return c, err
}
