// Package order implements order placement and retrieval, including the
// role-based visibility rules for order contents.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status values for an order header. This core only ever writes
// StatusPending; transitions are owned elsewhere.
const StatusPending = "pending"

var (
	// ErrNotFound is returned when no order matches the given reference.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when the caller may not view the order.
	ErrForbidden = errors.New("forbidden")
	// ErrVendorNoStore is returned for a vendor token without a store id.
	ErrVendorNoStore = errors.New("vendor has no associated store")

	// ErrEmptyItems rejects an order with no line items.
	ErrEmptyItems = errors.New("order items are required")
	// ErrIncompleteAddress rejects an address with missing required fields.
	ErrIncompleteAddress = errors.New("incomplete shipping address")
	// ErrInvalidAmounts rejects a negative subtotal or total.
	ErrInvalidAmounts = errors.New("invalid subtotal or total")
)

// InvalidItemError rejects a malformed line item.
type InvalidItemError struct {
	ProductID string
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return "invalid order item " + e.ProductID + ": " + e.Reason
}

// Address is a shipping address captured fresh with each order.
type Address struct {
	FullName   string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// NewItem is a line item as submitted at order time. Name, SKU and price are
// snapshotted into the order so later product edits never change history.
type NewItem struct {
	ProductID   string
	VariantID   string
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NewOrder is the fully resolved input to the transactional insert.
type NewOrder struct {
	UserID         string
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CouponID       string // empty when no coupon
	Address        Address
	Items          []NewItem
	Notes          string
}

// Order is a persisted order header.
type Order struct {
	ID             string
	OrderNumber    string
	UserID         string
	Status         string
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	CouponID       string
	CouponCode     string
	Notes          string
	CreatedAt      time.Time
}

// LineItem is a persisted order line with snapshotted product data.
type LineItem struct {
	ID          string
	OrderID     string
	ProductID   string
	VariantID   string
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Summary is what order placement returns to the caller.
type Summary struct {
	ID          string
	OrderNumber string
	CreatedAt   time.Time
	Total       decimal.Decimal
}

// Detail is a full order view. Items holds either all line items or, for a
// vendor caller, only that vendor's lines.
type Detail struct {
	Order   Order
	Address *Address
	Items   []LineItem
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts the address, order header, and line items in a single
	// transaction. Any failure rolls back all three.
	Create(ctx context.Context, o *NewOrder) (*Summary, error)
	// FindByRef looks up an order by internal id or display order number,
	// including its shipping address. Returns ErrNotFound when absent.
	FindByRef(ctx context.Context, ref string) (*Order, *Address, error)
	// ListItems returns all line items of an order.
	ListItems(ctx context.Context, orderID string) ([]LineItem, error)
	// ListVendorItems returns only the line items whose product belongs to
	// the given vendor.
	ListVendorItems(ctx context.Context, orderID, vendorID string) ([]LineItem, error)
	// ListSummaries returns admin-facing order rows, optionally filtered by status.
	ListSummaries(ctx context.Context, status string) ([]AdminRow, error)
	// ListVendorSummaries returns order rows containing at least one line
	// item of the given vendor.
	ListVendorSummaries(ctx context.Context, vendorID string) ([]AdminRow, error)
}

// AdminRow is a listing row for the admin and vendor order overviews.
type AdminRow struct {
	ID           string
	OrderNumber  string
	Status       string
	Total        decimal.Decimal
	CreatedAt    time.Time
	CustomerName string
	Email        string
	ItemsCount   int
}
