package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/artesa-market/internal/domain/auth"
)

// CouponPort is the narrow slice of the coupon service order placement needs.
type CouponPort interface {
	// ResolveCode maps an active coupon code to its id.
	ResolveCode(ctx context.Context, code string) (string, error)
	// MarkUsed records a redemption linked to an order.
	MarkUsed(ctx context.Context, couponID, userID, orderID string) error
}

// PlaceRequest holds the caller-supplied input for placing an order.
// Subtotal and Total are trusted as declared; the server does not recompute
// them from the items (known integrity gap, kept for compatibility).
type PlaceRequest struct {
	UserID         string
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CouponCode     string
	Address        Address
	Items          []NewItem
	Notes          string
}

// Service encapsulates order placement and retrieval.
type Service struct {
	orders  Repository
	coupons CouponPort
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, coupons CouponPort) *Service {
	return &Service{orders: orders, coupons: coupons}
}

// Place validates the request, resolves an optional coupon code, persists
// the order atomically, and records the coupon redemption best-effort after
// commit. A redemption failure is logged, never surfaced: the order stands.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Summary, error) {
	if err := validatePlace(&req); err != nil {
		return nil, err
	}

	couponID := ""
	if req.CouponCode != "" {
		id, err := s.coupons.ResolveCode(ctx, req.CouponCode)
		if err != nil {
			return nil, errors.Wrap(err, "resolve coupon code")
		}
		couponID = id
	}

	sum, err := s.orders.Create(ctx, &NewOrder{
		UserID:         req.UserID,
		Subtotal:       req.Subtotal,
		Tax:            req.Tax,
		ShippingCost:   req.ShippingCost,
		DiscountAmount: req.DiscountAmount,
		Total:          req.Total,
		CouponID:       couponID,
		Address:        req.Address,
		Items:          req.Items,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if couponID != "" {
		if err := s.coupons.MarkUsed(ctx, couponID, req.UserID, sum.ID); err != nil {
			zctx.From(ctx).Warn("record coupon redemption",
				zap.String("order_id", sum.ID),
				zap.String("coupon_id", couponID),
				zap.Error(err),
			)
		}
	}

	return sum, nil
}

// validatePlace re-asserts structural integrity even when the HTTP boundary
// has already validated the payload.
func validatePlace(req *PlaceRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for i := range req.Items {
		item := &req.Items[i]
		switch {
		case item.ProductID == "":
			return &InvalidItemError{ProductID: item.ProductID, Reason: "product id is required"}
		case item.ProductName == "":
			return &InvalidItemError{ProductID: item.ProductID, Reason: "product name is required"}
		case item.Quantity <= 0:
			return &InvalidItemError{ProductID: item.ProductID, Reason: "quantity must be greater than 0"}
		case item.UnitPrice.IsNegative():
			return &InvalidItemError{ProductID: item.ProductID, Reason: "unit price must not be negative"}
		}
	}

	a := &req.Address
	if a.FullName == "" || a.Street == "" || a.City == "" || a.State == "" || a.Country == "" || a.Phone == "" {
		return ErrIncompleteAddress
	}

	if req.Subtotal.IsNegative() || req.Total.IsNegative() {
		return ErrInvalidAmounts
	}
	return nil
}

// Get retrieves an order by id or display number and applies the visibility
// rules: admins see everything, customers see their own orders, vendors see
// an order only through their own line items.
func (s *Service) Get(ctx context.Context, ref string, caller *auth.Identity) (*Detail, error) {
	o, addr, err := s.orders.FindByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	if caller.Role == auth.RoleVendor {
		if caller.VendorID == "" {
			return nil, ErrVendorNoStore
		}
		items, err := s.orders.ListVendorItems(ctx, o.ID, caller.VendorID)
		if err != nil {
			return nil, errors.Wrap(err, "list vendor items")
		}
		// An order with none of the vendor's products is forbidden, not
		// hidden: its existence is visible, its contents are not.
		if len(items) == 0 {
			return nil, ErrForbidden
		}
		return &Detail{Order: *o, Address: addr, Items: items}, nil
	}

	if !CanViewFull(o, caller) {
		return nil, ErrForbidden
	}

	items, err := s.orders.ListItems(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return &Detail{Order: *o, Address: addr, Items: items}, nil
}

// List returns the admin order overview, optionally filtered by status.
// Only admins may call it.
func (s *Service) List(ctx context.Context, status string, caller *auth.Identity) ([]AdminRow, error) {
	if caller.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.orders.ListSummaries(ctx, status)
}

// ListForVendor returns the orders containing at least one of the caller
// vendor's products.
func (s *Service) ListForVendor(ctx context.Context, caller *auth.Identity) ([]AdminRow, error) {
	if caller.Role != auth.RoleVendor {
		return nil, ErrForbidden
	}
	if caller.VendorID == "" {
		return nil, ErrVendorNoStore
	}
	return s.orders.ListVendorSummaries(ctx, caller.VendorID)
}
