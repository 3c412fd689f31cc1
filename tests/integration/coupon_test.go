//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// SAVE10 is seeded as 10% off, minimum purchase 20, capped at 5, one use per user.

func TestValidateCoupon(t *testing.T) {
	t.Run("percentage capped at max discount", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "SAVE10", "amount": 100})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}

		_, data := decodeData[couponData](t, resp)
		if data.Discount != "5" {
			t.Fatalf("discount %s, want 5 (10%% of 100 capped)", data.Discount)
		}
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "SAVE10", "amount": 10})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", resp.StatusCode)
		}

		env := decodeJSON[envelope](t, resp)
		if env.MinPurchase != "20" {
			t.Fatalf("minPurchase %s, want 20", env.MinPurchase)
		}
	})

	t.Run("fixed amount never exceeds the cart", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "WELCOME5", "amount": 3})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}

		_, data := decodeData[couponData](t, resp)
		if data.Discount != "3" {
			t.Fatalf("discount %s, want 3", data.Discount)
		}
	})

	t.Run("case-insensitive lookup", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "save10", "amount": 50})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "NOPE", "amount": 50})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status %d, want 404", resp.StatusCode)
		}
	})

	t.Run("preview does not consume the coupon", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp := doPost(t, "/api/coupons/validate", map[string]any{"code": "SAVE10", "amount": 50})
			code := resp.StatusCode
			resp.Body.Close()
			if code != http.StatusOK {
				t.Fatalf("preview %d: status %d", i, code)
			}
		}
	})
}

func TestUseCoupon(t *testing.T) {
	session := login(t, adminEmail)

	t.Run("requires authentication", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/use", map[string]any{"code": "WELCOME5"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", resp.StatusCode)
		}
	})

	t.Run("single use per user", func(t *testing.T) {
		resp := doPost(t, "/api/coupons/use", map[string]any{"code": "WELCOME5"}, session...)
		code := resp.StatusCode
		resp.Body.Close()
		if code != http.StatusOK {
			t.Fatalf("first use: status %d", code)
		}

		resp = doPost(t, "/api/coupons/use", map[string]any{"code": "WELCOME5"}, session...)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("second use: status %d, want 409", resp.StatusCode)
		}
	})
}
