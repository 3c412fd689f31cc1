package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/domain/coupon"
	"github.com/xenking/artesa-market/internal/domain/order"
)

type mockOrderService struct {
	placed     *order.PlaceRequest
	summary    *order.Summary
	placeErr   error
	detail     *order.Detail
	getErr     error
	gotRef     string
	rows       []order.AdminRow
	listErr    error
	listStatus string
}

func (m *mockOrderService) Place(_ context.Context, req order.PlaceRequest) (*order.Summary, error) {
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	m.placed = &req
	return m.summary, nil
}

func (m *mockOrderService) Get(_ context.Context, ref string, _ *auth.Identity) (*order.Detail, error) {
	m.gotRef = ref
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.detail, nil
}

func (m *mockOrderService) List(_ context.Context, status string, _ *auth.Identity) ([]order.AdminRow, error) {
	m.listStatus = status
	return m.rows, m.listErr
}

func (m *mockOrderService) ListForVendor(_ context.Context, _ *auth.Identity) ([]order.AdminRow, error) {
	return m.rows, m.listErr
}

func customerSession() *http.Cookie {
	token := auth.NewTokenService([]byte(testSecret)).Issue("u1", "ana@example.com", auth.RoleCustomer, "")
	return &http.Cookie{Name: "auth_token", Value: token}
}

const createOrderBody = `{
	"items": [
		{"product": {"id": "p1", "name": "Alpaca scarf", "sku": "ALP-01"}, "variant": {"id": "var1"}, "quantity": 2, "price": 20}
	],
	"subtotal": 40,
	"tax": 4.8,
	"shipping": 5,
	"total": 44.8,
	"discount": 5,
	"couponCode": "SAVE10",
	"shippingAddress": {
		"fullName": "Ana Torres",
		"street": "Calle 5 #12",
		"city": "Quito",
		"state": "Pichincha",
		"postalCode": "170101",
		"country": "EC",
		"phone": "+593-99-000-0000"
	},
	"notes": "leave at reception"
}`

func TestCreateOrder(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		h := newTestHandler(t, &mockUsers{}, nil, &mockOrderService{}).Routes()

		rec := doJSON(t, h, http.MethodPost, "/orders/", createOrderBody)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		created := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		svc := &mockOrderService{summary: &order.Summary{
			ID:          "o1",
			OrderNumber: "ORD-20250615-000042",
			CreatedAt:   created,
			Total:       mustDec("44.8"),
		}}
		h := newTestHandler(t, &mockUsers{}, nil, svc).Routes()

		rec := doJSON(t, h, http.MethodPost, "/orders/", createOrderBody, customerSession())
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "o1", data["id"])
		assert.Equal(t, "ORD-20250615-000042", data["orderNumber"])
		assert.Equal(t, "44.8", data["total"])

		require.NotNil(t, svc.placed)
		assert.Equal(t, "u1", svc.placed.UserID)
		assert.Equal(t, "SAVE10", svc.placed.CouponCode)
		require.Len(t, svc.placed.Items, 1)
		assert.Equal(t, "var1", svc.placed.Items[0].VariantID)
		assert.Equal(t, "Quito", svc.placed.Address.City)
	})

	t.Run("validation failures map to 400", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
		}{
			{"empty items", order.ErrEmptyItems},
			{"incomplete address", order.ErrIncompleteAddress},
			{"invalid amounts", order.ErrInvalidAmounts},
			{"invalid item", &order.InvalidItemError{ProductID: "p1", Reason: "quantity must be greater than 0"}},
			{"unknown coupon", coupon.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newTestHandler(t, &mockUsers{}, nil, &mockOrderService{placeErr: tt.err}).Routes()

				rec := doJSON(t, h, http.MethodPost, "/orders/", createOrderBody, customerSession())
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestGetOrder(t *testing.T) {
	t.Run("full detail payload", func(t *testing.T) {
		svc := &mockOrderService{detail: &order.Detail{
			Order: order.Order{
				ID:          "o1",
				OrderNumber: "ORD-20250615-000042",
				UserID:      "u1",
				Status:      order.StatusPending,
				Subtotal:    mustDec("40"),
				Total:       mustDec("44.8"),
				CouponCode:  "SAVE10",
			},
			Address: &order.Address{FullName: "Ana Torres", City: "Quito"},
			Items: []order.LineItem{
				{ID: "li1", ProductID: "p1", ProductName: "Alpaca scarf", Quantity: 2, UnitPrice: mustDec("20"), Subtotal: mustDec("40")},
			},
		}}
		h := newTestHandler(t, &mockUsers{}, nil, svc).Routes()

		rec := doJSON(t, h, http.MethodGet, "/orders/ORD-20250615-000042", "", customerSession())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ORD-20250615-000042", svc.gotRef)

		body := decodeBody(t, rec)
		assert.Equal(t, "ORD-20250615-000042", body["id"], "display number wins over the internal id")
		assert.Equal(t, "pending", body["status"])
		assert.Equal(t, "SAVE10", body["couponCode"])
		addr := body["shippingAddress"].(map[string]any)
		assert.Equal(t, "Quito", addr["city"])
		items := body["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, "Alpaca scarf", items[0].(map[string]any)["name"])
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name     string
			err      error
			wantCode int
		}{
			{"not found", order.ErrNotFound, http.StatusNotFound},
			{"forbidden", order.ErrForbidden, http.StatusForbidden},
			{"vendor without store", order.ErrVendorNoStore, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newTestHandler(t, &mockUsers{}, nil, &mockOrderService{getErr: tt.err}).Routes()

				rec := doJSON(t, h, http.MethodGet, "/orders/o1", "", customerSession())
				assert.Equal(t, tt.wantCode, rec.Code)
			})
		}
	})
}

func TestListOrders(t *testing.T) {
	rows := []order.AdminRow{{
		ID:           "o1",
		OrderNumber:  "ORD-20250615-000042",
		Status:       order.StatusPending,
		Total:        mustDec("44.8"),
		CustomerName: "Ana Torres",
		Email:        "ana@example.com",
		ItemsCount:   2,
	}}

	t.Run("envelope with status filter", func(t *testing.T) {
		svc := &mockOrderService{rows: rows}
		h := newTestHandler(t, &mockUsers{}, nil, svc).Routes()

		rec := doJSON(t, h, http.MethodGet, "/orders/?status=pending", "", customerSession())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pending", svc.listStatus)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(1), body["count"])
		row := body["data"].([]any)[0].(map[string]any)
		assert.Equal(t, "ORD-20250615-000042", row["id"])
		assert.Equal(t, float64(2), row["items"])
	})

	t.Run("forbidden", func(t *testing.T) {
		h := newTestHandler(t, &mockUsers{}, nil, &mockOrderService{listErr: order.ErrForbidden}).Routes()

		rec := doJSON(t, h, http.MethodGet, "/orders/", "", customerSession())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListVendorOrders(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		svc := &mockOrderService{rows: []order.AdminRow{{ID: "o1", OrderNumber: "ORD-20250615-000042"}}}
		h := newTestHandler(t, &mockUsers{}, nil, svc).Routes()

		rec := doJSON(t, h, http.MethodGet, "/vendor/orders", "", customerSession())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
	})

	t.Run("vendor without store", func(t *testing.T) {
		h := newTestHandler(t, &mockUsers{}, nil, &mockOrderService{listErr: order.ErrVendorNoStore}).Routes()

		rec := doJSON(t, h, http.MethodGet, "/vendor/orders", "", customerSession())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
