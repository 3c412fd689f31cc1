package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/domain/user"
)

type mockUsers struct {
	user *user.User
}

func (m *mockUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, user.ErrNotFound
	}
	return m.user, nil
}

const testSecret = "test-secret"

func newTestHandler(t *testing.T, users user.Repository, coupons CouponService, orders OrderService) *Handler {
	t.Helper()
	return New(Config{}, auth.NewTokenService([]byte(testSecret)), users, coupons, orders)
}

func seedUser(t *testing.T, password string) *user.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &user.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hash,
		FirstName:    "Ana",
		LastName:     "Torres",
		Role:         auth.RoleCustomer,
	}
}

func doJSON(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	t.Fatal("no auth_token cookie set")
	return nil
}

func TestLogin(t *testing.T) {
	h := newTestHandler(t, &mockUsers{user: seedUser(t, "s3cret")}, nil, nil).Routes()

	t.Run("valid credentials set the auth cookie", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"s3cret"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		c := authCookie(t, rec)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, 7*24*60*60, c.MaxAge)

		id := auth.NewTokenService([]byte(testSecret)).Verify(c.Value)
		require.NotNil(t, id, "cookie must carry a verifiable token")
		assert.Equal(t, "u1", id.Sub)
		assert.Equal(t, auth.RoleCustomer, id.Role)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "ana@example.com", data["email"])
		assert.Nil(t, data["vendorId"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"s3cret"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", `{"email":"ana@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutClearsSession(t *testing.T) {
	h := newTestHandler(t, &mockUsers{user: seedUser(t, "s3cret")}, nil, nil).Routes()

	login := doJSON(t, h, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, login.Code)
	session := authCookie(t, login)

	logout := doJSON(t, h, http.MethodPost, "/auth/logout", "", session)
	require.Equal(t, http.StatusOK, logout.Code)

	cleared := authCookie(t, logout)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge, "cookie must expire immediately")

	// A request carrying the cleared cookie is unauthenticated again.
	me := doJSON(t, h, http.MethodGet, "/auth/me", "", cleared)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestMe(t *testing.T) {
	h := newTestHandler(t, &mockUsers{}, nil, nil).Routes()
	tokens := auth.NewTokenService([]byte(testSecret))

	t.Run("valid token", func(t *testing.T) {
		token := tokens.Issue("v-user", "taller@example.com", auth.RoleVendor, "v1")
		rec := doJSON(t, h, http.MethodGet, "/auth/me", "", &http.Cookie{Name: "auth_token", Value: token})
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, "v-user", data["sub"])
		assert.Equal(t, "vendor", data["role"])
		assert.Equal(t, "v1", data["vendorId"])
	})

	t.Run("no cookie", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		token := tokens.Issue("u1", "ana@example.com", auth.RoleCustomer, "")
		rec := doJSON(t, h, http.MethodGet, "/auth/me", "", &http.Cookie{Name: "auth_token", Value: token + "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
