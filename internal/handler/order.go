package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/artesa-market/internal/domain/coupon"
	"github.com/xenking/artesa-market/internal/domain/order"
)

type orderItemRequest struct {
	Product struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		SKU  string `json:"sku"`
	} `json:"product"`
	Variant *struct {
		ID string `json:"id"`
	} `json:"variant"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type shippingAddressRequest struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	Tax             decimal.Decimal        `json:"tax"`
	Shipping        decimal.Decimal        `json:"shipping"`
	Total           decimal.Decimal        `json:"total"`
	Discount        decimal.Decimal        `json:"discount"`
	CouponCode      string                 `json:"couponCode"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	Notes           string                 `json:"notes"`
}

// CreateOrder places an order for the authenticated user.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller := h.identityFrom(r)

	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.NewItem, len(req.Items))
	for i, item := range req.Items {
		variantID := ""
		if item.Variant != nil {
			variantID = item.Variant.ID
		}
		items[i] = order.NewItem{
			ProductID:   item.Product.ID,
			VariantID:   variantID,
			ProductName: item.Product.Name,
			ProductSKU:  item.Product.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		}
	}

	sum, err := h.orders.Place(r.Context(), order.PlaceRequest{
		UserID:         caller.Sub,
		Subtotal:       req.Subtotal,
		Tax:            req.Tax,
		ShippingCost:   req.Shipping,
		DiscountAmount: req.Discount,
		Total:          req.Total,
		CouponCode:     req.CouponCode,
		Address: order.Address{
			FullName:   req.ShippingAddress.FullName,
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		},
		Items: items,
		Notes: req.Notes,
	})
	if err != nil {
		h.writeCreateOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Order created successfully",
		"data": map[string]any{
			"id":          sum.ID,
			"orderNumber": sum.OrderNumber,
			"createdAt":   sum.CreatedAt,
			"total":       sum.Total,
		},
	})
}

// writeCreateOrderError maps order placement failures. Validation problems
// and an unknown/inactive coupon code are the caller's fault (400);
// everything else is internal and rolled back.
func (h *Handler) writeCreateOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var itemErr *order.InvalidItemError
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrIncompleteAddress),
		errors.Is(err, order.ErrInvalidAmounts):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &itemErr):
		writeError(w, http.StatusBadRequest, itemErr.Error())
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusBadRequest, "Coupon not found or inactive")
	default:
		writeInternal(w, r, "create order", err)
	}
}

// GetOrder retrieves one order by internal id or display order number,
// applying the role visibility rules.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller := h.identityFrom(r)
	ref := chi.URLParam(r, "ref")

	detail, err := h.orders.Get(r.Context(), ref, caller)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, order.ErrVendorNoStore):
			writeError(w, http.StatusBadRequest, "Vendor has no associated store")
		default:
			writeInternal(w, r, "get order", err)
		}
		return
	}

	items := make([]map[string]any, len(detail.Items))
	for i, item := range detail.Items {
		items[i] = map[string]any{
			"id":        item.ID,
			"productId": item.ProductID,
			"variantId": emptyToNil(item.VariantID),
			"name":      item.ProductName,
			"sku":       emptyToNil(item.ProductSKU),
			"quantity":  item.Quantity,
			"unitPrice": item.UnitPrice,
			"subtotal":  item.Subtotal,
		}
	}

	var addr any
	if detail.Address != nil {
		addr = map[string]any{
			"fullName":   detail.Address.FullName,
			"street":     detail.Address.Street,
			"city":       detail.Address.City,
			"state":      detail.Address.State,
			"postalCode": detail.Address.PostalCode,
			"country":    detail.Address.Country,
			"phone":      detail.Address.Phone,
		}
	}

	o := detail.Order
	writeJSON(w, http.StatusOK, map[string]any{
		"id":              displayRef(&o),
		"status":          o.Status,
		"subtotal":        o.Subtotal,
		"tax":             o.Tax,
		"shipping":        o.ShippingCost,
		"discount":        o.DiscountAmount,
		"total":           o.Total,
		"couponCode":      emptyToNil(o.CouponCode),
		"createdAt":       o.CreatedAt,
		"shippingAddress": addr,
		"items":           items,
	})
}

// ListOrders returns the admin order overview, optionally filtered by the
// status query parameter.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller := h.identityFrom(r)

	rows, err := h.orders.List(r.Context(), r.URL.Query().Get("status"), caller)
	if err != nil {
		if errors.Is(err, order.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		writeInternal(w, r, "list orders", err)
		return
	}
	h.writeOrderRows(w, rows)
}

// ListVendorOrders returns the orders containing the caller vendor's products.
func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	caller := h.identityFrom(r)

	rows, err := h.orders.ListForVendor(r.Context(), caller)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrForbidden):
			writeError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, order.ErrVendorNoStore):
			writeError(w, http.StatusBadRequest, "Vendor has no associated store")
		default:
			writeInternal(w, r, "list vendor orders", err)
		}
		return
	}
	h.writeOrderRows(w, rows)
}

func (h *Handler) writeOrderRows(w http.ResponseWriter, rows []order.AdminRow) {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		id := row.OrderNumber
		if id == "" {
			id = row.ID
		}
		out[i] = map[string]any{
			"id":           id,
			"customerName": row.CustomerName,
			"email":        row.Email,
			"total":        row.Total,
			"status":       row.Status,
			"items":        row.ItemsCount,
			"createdAt":    row.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(out),
		"data":    out,
	})
}

func displayRef(o *order.Order) string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.ID
}
