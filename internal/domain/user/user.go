// Package user holds the account model used for login and token issuance.
package user

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/artesa-market/internal/domain/auth"
)

// ErrNotFound is returned when no account exists for the given email.
var ErrNotFound = errors.New("user not found")

// User is a marketplace account. VendorID is set only for vendor accounts
// and identifies the store the account administers.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         auth.Role
	VendorID     string
}

// Repository provides account lookup for authentication.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}
