package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/artesa-market/internal/domain/order"
)

const (
	insertAddressSQL = `INSERT INTO addresses
		(user_id, full_name, street, city, state, postal_code, country, phone, is_default, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, 'shipping')
		RETURNING id`

	insertOrderSQL = `INSERT INTO orders
		(user_id, status, subtotal, tax, shipping_cost, discount_amount, total, coupon_id, address_id, notes)
		VALUES ($1, 'pending', $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, order_number, created_at`

	insertItemSQL = `INSERT INTO order_items
		(order_id, product_id, variant_id, product_name, product_sku, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	findOrderByRefSQL = `SELECT
		o.id, o.order_number, o.user_id, o.status,
		o.subtotal, o.tax, o.shipping_cost, o.discount_amount, o.total,
		o.coupon_id, c.code, o.notes, o.created_at,
		a.full_name, a.street, a.city, a.state, a.postal_code, a.country, a.phone
		FROM orders o
		LEFT JOIN coupons c ON c.id = o.coupon_id
		LEFT JOIN addresses a ON a.id = o.address_id
		WHERE o.id::TEXT = $1 OR o.order_number = $1
		LIMIT 1`

	listItemsSQL = `SELECT id, order_id, product_id, variant_id, product_name, product_sku,
		quantity, unit_price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY created_at`

	listVendorItemsSQL = `SELECT i.id, i.order_id, i.product_id, i.variant_id, i.product_name,
		i.product_sku, i.quantity, i.unit_price, i.subtotal
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1 AND p.vendor_id = $2
		ORDER BY i.created_at`

	listSummariesSQL = `SELECT o.id, o.order_number, o.status, o.total, o.created_at,
		COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, ''),
		COUNT(i.id)::INT
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE $1 = '' OR o.status = $1
		GROUP BY o.id, u.first_name, u.last_name, u.email
		ORDER BY o.created_at DESC`

	listVendorSummariesSQL = `SELECT o.id, o.order_number, o.status, o.total, o.created_at,
		COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, ''),
		COUNT(DISTINCT i.id)::INT
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		JOIN products p ON p.id = i.product_id
		LEFT JOIN users u ON u.id = o.user_id
		WHERE p.vendor_id = $1
		GROUP BY o.id, u.first_name, u.last_name, u.email
		ORDER BY o.created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the shipping address, the order header, and every line item
// inside one transaction. Line subtotals are computed here from unit price
// and quantity; a client-supplied line subtotal is never trusted. Any
// failure rolls the whole sequence back.
func (r *OrderRepository) Create(ctx context.Context, o *order.NewOrder) (*order.Summary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning order tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var addressID string
	err = tx.QueryRow(ctx, insertAddressSQL,
		o.UserID, o.Address.FullName, o.Address.Street, o.Address.City,
		o.Address.State, o.Address.PostalCode, o.Address.Country, o.Address.Phone,
	).Scan(&addressID)
	if err != nil {
		return nil, fmt.Errorf("inserting address: %w", err)
	}

	var couponID *string
	if o.CouponID != "" {
		couponID = &o.CouponID
	}
	var notes *string
	if o.Notes != "" {
		notes = &o.Notes
	}

	sum := order.Summary{Total: o.Total}
	err = tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.Subtotal, o.Tax, o.ShippingCost, o.DiscountAmount, o.Total,
		couponID, addressID, notes,
	).Scan(&sum.ID, &sum.OrderNumber, &sum.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		var variantID *string
		if item.VariantID != "" {
			variantID = &item.VariantID
		}
		var sku *string
		if item.ProductSKU != "" {
			sku = &item.ProductSKU
		}
		lineSubtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		_, err = tx.Exec(ctx, insertItemSQL,
			sum.ID, item.ProductID, variantID, item.ProductName, sku,
			item.Quantity, item.UnitPrice, lineSubtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting line item for product %q: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	return &sum, nil
}

// FindByRef looks up an order by internal id or display order number.
func (r *OrderRepository) FindByRef(ctx context.Context, ref string) (*order.Order, *order.Address, error) {
	var (
		o           order.Order
		couponID    *string
		couponCode  *string
		notes       *string
		createdAt   time.Time
		addr        order.Address
		addrName    *string
		addrStreet  *string
		addrCity    *string
		addrState   *string
		addrPostal  *string
		addrCountry *string
		addrPhone   *string
	)
	err := r.pool.QueryRow(ctx, findOrderByRefSQL, ref).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.DiscountAmount, &o.Total,
		&couponID, &couponCode, &notes, &createdAt,
		&addrName, &addrStreet, &addrCity, &addrState, &addrPostal, &addrCountry, &addrPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, order.ErrNotFound
		}
		return nil, nil, fmt.Errorf("finding order %q: %w", ref, err)
	}

	if couponID != nil {
		o.CouponID = *couponID
	}
	if couponCode != nil {
		o.CouponCode = *couponCode
	}
	if notes != nil {
		o.Notes = *notes
	}
	o.CreatedAt = createdAt

	if addrName == nil {
		return &o, nil, nil
	}
	addr = order.Address{
		FullName: *addrName,
		Street:   deref(addrStreet),
		City:     deref(addrCity),
		State:    deref(addrState),
		Country:  deref(addrCountry),
		Phone:    deref(addrPhone),
	}
	addr.PostalCode = deref(addrPostal)
	return &o, &addr, nil
}

// ListItems returns all line items of an order in insertion order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", orderID, err)
	}
	return items, nil
}

// ListVendorItems returns only the order's line items whose product belongs
// to the given vendor.
func (r *OrderRepository) ListVendorItems(ctx context.Context, orderID, vendorID string) ([]order.LineItem, error) {
	rows, err := r.pool.Query(ctx, listVendorItemsSQL, orderID, vendorID)
	if err != nil {
		return nil, fmt.Errorf("listing vendor items for order %q: %w", orderID, err)
	}
	items, err := pgx.CollectRows(rows, scanLineItem)
	if err != nil {
		return nil, fmt.Errorf("listing vendor items for order %q: %w", orderID, err)
	}
	return items, nil
}

// ListSummaries returns admin-facing order rows, newest first. An empty
// status matches all orders.
func (r *OrderRepository) ListSummaries(ctx context.Context, status string) ([]order.AdminRow, error) {
	rows, err := r.pool.Query(ctx, listSummariesSQL, status)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanAdminRow)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return out, nil
}

// ListVendorSummaries returns the orders containing at least one of the
// vendor's products, newest first.
func (r *OrderRepository) ListVendorSummaries(ctx context.Context, vendorID string) ([]order.AdminRow, error) {
	rows, err := r.pool.Query(ctx, listVendorSummariesSQL, vendorID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for vendor %q: %w", vendorID, err)
	}
	out, err := pgx.CollectRows(rows, scanAdminRow)
	if err != nil {
		return nil, fmt.Errorf("listing orders for vendor %q: %w", vendorID, err)
	}
	return out, nil
}

func scanLineItem(row pgx.CollectableRow) (order.LineItem, error) {
	var (
		item      order.LineItem
		variantID *string
		sku       *string
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &variantID, &item.ProductName,
		&sku, &item.Quantity, &item.UnitPrice, &item.Subtotal,
	)
	if variantID != nil {
		item.VariantID = *variantID
	}
	if sku != nil {
		item.ProductSKU = *sku
	}
	return item, err
}

func scanAdminRow(row pgx.CollectableRow) (order.AdminRow, error) {
	var out order.AdminRow
	err := row.Scan(
		&out.ID, &out.OrderNumber, &out.Status, &out.Total, &out.CreatedAt,
		&out.CustomerName, &out.Email, &out.ItemsCount,
	)
	return out, err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
