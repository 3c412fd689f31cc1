package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/domain/user"
)

// tokenCookieMaxAge is the auth cookie lifetime. The token itself carries no
// expiry; validity is managed client-side through the cookie.
const tokenCookieMaxAge = 7 * 24 * 60 * 60

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, issues a signed identity token, and sets it as
// an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeInternal(w, r, "find user", err)
		return
	}
	if !auth.VerifyPassword(req.Password, u.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := h.tokens.Issue(u.ID, u.Email, u.Role, u.VendorID)
	h.setAuthCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"id":        u.ID,
			"email":     u.Email,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
			"role":      u.Role,
			"vendorId":  emptyToNil(u.VendorID),
		},
	})
}

// Logout clears the auth cookie. A subsequent request carrying the cleared
// cookie value is unauthenticated.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the verified token payload, or 401 when no valid token is present.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := h.identityFrom(r)
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"sub":      id.Sub,
			"email":    id.Email,
			"role":     id.Role,
			"vendorId": emptyToNil(id.VendorID),
			"iat":      id.IssuedAt,
		},
	})
}

func (h *Handler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   tokenCookieMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // serializes as Max-Age=0
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
