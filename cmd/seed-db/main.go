// Command seed-db applies the schema and loads a demo dataset: one account
// per role, a vendor store with products, and a pair of coupons.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/artesa-market/internal/domain/auth"
	"github.com/xenking/artesa-market/internal/repository"
)

func main() {
	var (
		databaseURL string
		password    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&password, "password", "", "password for all seeded accounts (or ARTESA_SEED_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if password == "" {
		password = os.Getenv("ARTESA_SEED_PASSWORD")
	}
	if password == "" {
		slog.Error("seed password is required: set --password or ARTESA_SEED_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, password); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, password string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "hash seed password")
	}

	return seed(ctx, pool, hash)
}

func seed(ctx context.Context, pool *pgxpool.Pool, passwordHash string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin seed tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	users := []struct {
		email, first, last, role string
	}{
		{"admin@artesa.test", "Ana", "Admin", "admin"},
		{"vendor@artesa.test", "Victor", "Vendor", "vendor"},
		{"customer@artesa.test", "Clara", "Customer", "customer"},
	}

	ids := make(map[string]string, len(users))
	for _, u := range users {
		var id string
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, first_name, last_name, role)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
			 RETURNING id`,
			u.email, passwordHash, u.first, u.last, u.role,
		).Scan(&id)
		if err != nil {
			return errors.Wrapf(err, "seed user %s", u.email)
		}
		ids[u.role] = id
	}

	// Re-runnable: reuse the store when the vendor account already has one.
	var vendorID string
	err = tx.QueryRow(ctx,
		`WITH created AS (
		   INSERT INTO vendors (owner_user_id, name)
		   SELECT $1, 'Taller Victor'
		   WHERE NOT EXISTS (SELECT 1 FROM vendors WHERE owner_user_id = $1)
		   RETURNING id
		 )
		 SELECT id FROM created
		 UNION ALL
		 SELECT id FROM vendors WHERE owner_user_id = $1
		 LIMIT 1`,
		ids["vendor"],
	).Scan(&vendorID)
	if err != nil {
		return errors.Wrap(err, "seed vendor")
	}

	// Fixed ids keep the seed re-runnable and let black-box tests reference
	// products without a listing endpoint.
	products := []struct {
		id, name, sku, price string
	}{
		{"a1000000-0000-4000-8000-000000000001", "Ceramic bowl", "CER-001", "24.00"},
		{"a1000000-0000-4000-8000-000000000002", "Woven basket", "WOV-014", "38.50"},
		{"a1000000-0000-4000-8000-000000000003", "Olive wood board", "WOOD-007", "45.00"},
	}
	for _, p := range products {
		if _, err := tx.Exec(ctx,
			`INSERT INTO products (id, vendor_id, name, sku, price) VALUES ($1, $2, $3, $4, $5::NUMERIC)
			 ON CONFLICT (id) DO NOTHING`,
			p.id, vendorID, p.name, p.sku, p.price,
		); err != nil {
			return errors.Wrapf(err, "seed product %s", p.sku)
		}
	}

	now := time.Now()
	coupons := []struct {
		code, kind, value, minPurchase, maxDiscount string
		perUser                                     int
	}{
		{"SAVE10", "percentage", "10", "20", "5", 1},
		{"WELCOME5", "fixed_amount", "5", "0", "", 1},
	}
	for _, c := range coupons {
		var maxDiscount any
		if c.maxDiscount != "" {
			maxDiscount = c.maxDiscount
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO coupons
			 (code, type, discount_value, min_purchase_amount, max_discount_amount,
			  usage_limit_per_user, starts_at, expires_at)
			 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6, $7, $8)
			 ON CONFLICT DO NOTHING`,
			c.code, c.kind, c.value, c.minPurchase, maxDiscount, c.perUser,
			now, now.AddDate(1, 0, 0),
		); err != nil {
			return errors.Wrapf(err, "seed coupon %s", c.code)
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit seed tx")
}
