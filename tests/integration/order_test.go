//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func orderPayload() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{
				"product":  map[string]any{"id": productBowl, "name": "Ceramic bowl", "sku": "CER-001"},
				"quantity": 2,
				"price":    24.00,
			},
			{
				"product":  map[string]any{"id": productBasket, "name": "Woven basket", "sku": "WOV-014"},
				"quantity": 1,
				"price":    38.50,
			},
		},
		"subtotal":   86.50,
		"tax":        10.38,
		"shipping":   5,
		"discount":   5,
		"total":      96.88,
		"couponCode": "SAVE10",
		"shippingAddress": map[string]any{
			"fullName":   "Clara Customer",
			"street":     "Calle 5 #12",
			"city":       "Quito",
			"state":      "Pichincha",
			"postalCode": "170101",
			"country":    "EC",
			"phone":      "+593-99-000-0000",
		},
	}
}

func TestOrderLifecycle(t *testing.T) {
	customer := login(t, customerEmail)

	resp := doPost(t, "/api/orders/", orderPayload(), customer...)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	env, created := decodeData[orderCreatedData](t, resp)
	resp.Body.Close()
	if !env.Success {
		t.Fatal("create: success=false")
	}
	if !strings.HasPrefix(created.OrderNumber, "ORD-") {
		t.Fatalf("order number %q missing ORD- prefix", created.OrderNumber)
	}

	t.Run("owner sees the full order by display number", func(t *testing.T) {
		resp := doGet(t, "/api/orders/"+created.OrderNumber, customer...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}

		detail := decodeJSON[orderDetail](t, resp)
		if detail.ID != created.OrderNumber {
			t.Fatalf("id %q, want display number %q", detail.ID, created.OrderNumber)
		}
		if detail.Status != "pending" {
			t.Fatalf("status %q, want pending", detail.Status)
		}
		if detail.CouponCode == nil || *detail.CouponCode != "SAVE10" {
			t.Fatalf("couponCode %v, want SAVE10", detail.CouponCode)
		}
		if len(detail.Items) != 2 {
			t.Fatalf("items %d, want 2", len(detail.Items))
		}
	})

	t.Run("lookup by internal id also works", func(t *testing.T) {
		resp := doGet(t, "/api/orders/"+created.ID, customer...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
	})

	t.Run("vendor sees its line items", func(t *testing.T) {
		vendor := login(t, vendorEmail)

		resp := doGet(t, "/api/orders/"+created.OrderNumber, vendor...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
		detail := decodeJSON[orderDetail](t, resp)
		if len(detail.Items) != 2 {
			t.Fatalf("items %d, want 2 (all seeded products belong to this vendor)", len(detail.Items))
		}
	})

	t.Run("admin overview lists the order", func(t *testing.T) {
		admin := login(t, adminEmail)

		resp := doGet(t, "/api/orders/?status=pending", admin...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}

		_, rows := decodeData[[]orderRow](t, resp)
		found := false
		for _, row := range rows {
			if row.ID == created.OrderNumber {
				found = true
				if row.Items != 2 {
					t.Fatalf("items count %d, want 2", row.Items)
				}
			}
		}
		if !found {
			t.Fatalf("order %s not in admin overview", created.OrderNumber)
		}
	})

	t.Run("vendor overview lists the order", func(t *testing.T) {
		vendor := login(t, vendorEmail)

		resp := doGet(t, "/api/vendor/orders", vendor...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}

		_, rows := decodeData[[]orderRow](t, resp)
		found := false
		for _, row := range rows {
			if row.ID == created.OrderNumber {
				found = true
			}
		}
		if !found {
			t.Fatalf("order %s not in vendor overview", created.OrderNumber)
		}
	})

	t.Run("customer may not use the admin overview", func(t *testing.T) {
		resp := doGet(t, "/api/orders/", customer...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status %d, want 403", resp.StatusCode)
		}
	})
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	customer := login(t, customerEmail)

	payload := orderPayload()
	payload["items"] = []map[string]any{}

	resp := doPost(t, "/api/orders/", payload, customer...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestCreateOrderRollsBackOnUnknownProduct(t *testing.T) {
	customer := login(t, customerEmail)
	admin := login(t, adminEmail)

	before := adminOrderCount(t, admin)

	// Second item references a product that does not exist, so its insert
	// violates the order_items foreign key after the order header and the
	// first item were already written inside the transaction.
	payload := orderPayload()
	payload["couponCode"] = ""
	payload["items"] = []map[string]any{
		{
			"product":  map[string]any{"id": productBowl, "name": "Ceramic bowl", "sku": "CER-001"},
			"quantity": 1,
			"price":    24.00,
		},
		{
			"product":  map[string]any{"id": "9e000000-0000-4000-8000-0000000000ff", "name": "Phantom product", "sku": "PHA-000"},
			"quantity": 1,
			"price":    10.00,
		},
	}

	resp := doPost(t, "/api/orders/", payload, customer...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}

	if after := adminOrderCount(t, admin); after != before {
		t.Fatalf("order count went %d -> %d, want unchanged after rollback", before, after)
	}
}

func adminOrderCount(t *testing.T, admin []*http.Cookie) int {
	t.Helper()

	resp := doGet(t, "/api/orders/", admin...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview: status %d", resp.StatusCode)
	}
	env, _ := decodeData[[]orderRow](t, resp)
	return env.Count
}

func TestGetOrderNotFound(t *testing.T) {
	admin := login(t, adminEmail)

	resp := doGet(t, "/api/orders/ORD-19700101-000000", admin...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}
