package order

import "github.com/xenking/artesa-market/internal/domain/auth"

// CanViewFull reports whether the caller may see the whole order, all line
// items included. Vendors are never granted the full view — their access is
// decided per line item by the owning service — and every other non-admin
// role is treated as a customer who sees only their own orders.
func CanViewFull(o *Order, caller *auth.Identity) bool {
	switch caller.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleVendor:
		return false
	case auth.RoleCustomer:
		return o.UserID == caller.Sub
	default:
		return false
	}
}
