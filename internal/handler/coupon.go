package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/artesa-market/internal/domain/coupon"
)

type validateCouponRequest struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

type useCouponRequest struct {
	Code string `json:"code"`
}

// ValidateCoupon previews the discount a code yields for a cart amount.
// Authentication is optional; when present, the per-user usage check applies.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	requesterID := ""
	if id := h.identityFrom(r); id != nil {
		requesterID = id.Sub
	}

	quote, err := h.coupons.Preview(r.Context(), req.Code, req.Amount, requesterID)
	if err != nil {
		h.writeCouponError(w, r, err)
		return
	}

	var maxDiscount any
	if quote.MaxDiscountAmount != nil {
		maxDiscount = *quote.MaxDiscountAmount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"code":              quote.Code,
			"type":              quote.Type,
			"value":             quote.Value,
			"minPurchase":       quote.MinPurchase,
			"maxDiscountAmount": maxDiscount,
			"discount":          quote.Discount,
		},
	})
}

// UseCoupon redeems a code for the authenticated user without linking it to
// an order.
func (h *Handler) UseCoupon(w http.ResponseWriter, r *http.Request) {
	var req useCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Coupon code is required")
		return
	}

	caller := h.identityFrom(r)
	if err := h.coupons.Redeem(r.Context(), req.Code, caller.Sub); err != nil {
		h.writeCouponError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// writeCouponError maps the evaluation ladder's rejections onto HTTP status
// codes: 400 input/validation, 404 not-found-or-inactive, 409 already-used.
func (h *Handler) writeCouponError(w http.ResponseWriter, r *http.Request, err error) {
	var minErr *coupon.MinimumNotMetError
	switch {
	case errors.Is(err, coupon.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusNotFound, "Coupon not found or inactive")
	case errors.Is(err, coupon.ErrNotYetValidOrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached),
		errors.Is(err, coupon.ErrNotApplicable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &minErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":     false,
			"error":       "Minimum purchase amount not met",
			"minPurchase": minErr.Minimum,
		})
	default:
		writeInternal(w, r, "coupon evaluation", err)
	}
}
