package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/domain/user"
)

const findUserByEmailSQL = `SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name,
	u.role, COALESCE(v.id::TEXT, '')
	FROM users u
	LEFT JOIN vendors v ON v.owner_user_id = u.id
	WHERE LOWER(u.email) = LOWER($1)
	LIMIT 1`

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByEmail looks up an account by email (case-insensitive), joining the
// vendor store id for vendor accounts. Returns user.ErrNotFound when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.pool.QueryRow(ctx, findUserByEmailSQL, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.VendorID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	u.Role = auth.ParseRole(role)
	return &u, nil
}
