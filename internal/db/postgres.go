package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("postgres", dsn)
}

func DSN(host string, port int, user, pass, name, ssl string) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, ssl,
	)
}

// Migrate creates the relational schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                     TEXT PRIMARY KEY,
		first_name             TEXT NOT NULL,
		last_name              TEXT NOT NULL,
		area                   TEXT NOT NULL DEFAULT '',
		email                  TEXT NOT NULL UNIQUE,
		password_hash          TEXT NOT NULL,
		profile_image          TEXT NOT NULL DEFAULT '',
		otp                    TEXT NOT NULL DEFAULT '',
		otp_expiry             TIMESTAMPTZ,
		removed_products_count INTEGER NOT NULL DEFAULT 0,
		upload_ban_until       TIMESTAMPTZ,
		created_at             TIMESTAMPTZ NOT NULL,
		updated_at             TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS municipalities (
		id                BIGSERIAL PRIMARY KEY,
		district          TEXT NOT NULL,
		municipality_name TEXT NOT NULL,
		municipality_type TEXT NOT NULL,
		area_sq_km        DOUBLE PRECISION NOT NULL DEFAULT 0,
		population        BIGINT NOT NULL DEFAULT 0,
		contact_email     TEXT NOT NULL UNIQUE,
		contact_phone     TEXT NOT NULL DEFAULT '',
		password_hash     TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_notifications (
		id           TEXT PRIMARY KEY,
		user_email   TEXT NOT NULL,
		type         TEXT NOT NULL,
		product_id   TEXT NOT NULL,
		product_name TEXT NOT NULL,
		message      TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS report_notifications_user_created
		ON report_notifications (user_email, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS pending_removals (
		product_id   TEXT PRIMARY KEY,
		seller_email TEXT NOT NULL,
		product_name TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		applied_at   TIMESTAMPTZ
	)`,
}
