//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLoginLogoutFlow(t *testing.T) {
	session := login(t, customerEmail)

	// The session grants access to /auth/me.
	resp := doGet(t, "/api/auth/me", session...)
	env, me := decodeData[struct {
		Sub  string `json:"sub"`
		Role string `json:"role"`
	}](t, resp)
	resp.Body.Close()
	if !env.Success || me.Role != "customer" {
		t.Fatalf("me: success=%v role=%q", env.Success, me.Role)
	}

	// Logout returns a cleared cookie.
	resp = doPost(t, "/api/auth/logout", nil, session...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	var cleared []*http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			if c.Value != "" {
				t.Fatalf("logout cookie still carries a token")
			}
			cleared = append(cleared, c)
		}
	}
	if len(cleared) == 0 {
		t.Fatal("logout did not reset the auth cookie")
	}

	// A request carrying the cleared cookie is unauthenticated.
	resp = doGet(t, "/api/auth/me", cleared...)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d, want 401", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	resp := doPost(t, "/api/auth/login", map[string]string{
		"email":    customerEmail,
		"password": "not-the-password",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	for _, path := range []string{"/api/orders/", "/api/vendor/orders"} {
		resp := doGet(t, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s without session: status %d, want 401", path, resp.StatusCode)
		}
	}
}
