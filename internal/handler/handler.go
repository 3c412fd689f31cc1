// Package handler exposes the marketplace core over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/domain/coupon"
	"github.com/xenking/artesa-market/internal/domain/order"
	"github.com/xenking/artesa-market/internal/domain/user"
)

// tokenCookieName is the cookie carrying the signed identity assertion.
const tokenCookieName = "auth_token"

// Config holds non-dependency settings for the Handler.
type Config struct {
	// CookieSecure sets the Secure attribute on the auth cookie.
	CookieSecure bool
}

// CouponService is the coupon surface the handlers need.
type CouponService interface {
	Preview(ctx context.Context, code string, amount decimal.Decimal, requesterID string) (*coupon.Quote, error)
	Redeem(ctx context.Context, code, userID string) error
}

// OrderService is the order surface the handlers need.
type OrderService interface {
	Place(ctx context.Context, req order.PlaceRequest) (*order.Summary, error)
	Get(ctx context.Context, ref string, caller *auth.Identity) (*order.Detail, error)
	List(ctx context.Context, status string, caller *auth.Identity) ([]order.AdminRow, error)
	ListForVendor(ctx context.Context, caller *auth.Identity) ([]order.AdminRow, error)
}

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	cfg     Config
	tokens  *auth.TokenService
	users   user.Repository
	coupons CouponService
	orders  OrderService
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, tokens *auth.TokenService, users user.Repository, coupons CouponService, orders OrderService) *Handler {
	return &Handler{
		cfg:     cfg,
		tokens:  tokens,
		users:   users,
		coupons: coupons,
		orders:  orders,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Post("/validate", h.ValidateCoupon)
		r.With(h.requireAuth).Post("/use", h.UseCoupon)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{ref}", h.GetOrder)
	})

	r.With(h.requireAuth).Get("/vendor/orders", h.ListVendorOrders)

	return r
}

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// identityFrom returns the verified identity stored by requireAuth, or the
// one recoverable from the request cookie for optionally-authenticated
// endpoints. Returns nil when no valid token is present.
func (h *Handler) identityFrom(r *http.Request) *auth.Identity {
	if id, ok := r.Context().Value(identityKey{}).(*auth.Identity); ok {
		return id
	}
	c, err := r.Cookie(tokenCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return h.tokens.Verify(c.Value)
}

// requireAuth rejects requests without a valid identity token. An invalid
// token is treated identically to an absent one.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := h.identityFrom(r)
		if id == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
