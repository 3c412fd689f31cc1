package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalcDiscount computes the raw discount a coupon yields for a cart amount.
// Percentage discounts are clamped to MaxDiscountAmount when set; unknown
// types yield zero. The result is rounded to cents, the precision of the
// NUMERIC(12,2) money columns it is stored in and settled against. It is not
// yet clamped to the cart amount; applicability is judged on the raw value
// first.
func CalcDiscount(c *Coupon, amount decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case TypePercentage:
		d := amount.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount != nil {
			d = decimal.Min(d, *c.MaxDiscountAmount)
		}
		return d.Round(2)
	case TypeFixedAmount:
		return c.DiscountValue.Round(2)
	default:
		return decimal.Zero
	}
}

// ClampToAmount caps a discount at the cart amount: a coupon never reduces
// the total below zero.
func ClampToAmount(discount, amount decimal.Decimal) decimal.Decimal {
	return decimal.Min(discount, amount)
}
