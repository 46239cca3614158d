package database

import (
	"context"
	"fmt"
)

var knownTables = map[string]struct{}{
	"users":       {},
	"csv_uploads": {},
	"plans":       {},
	"payments":    {},
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS plans (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name            TEXT NOT NULL,
		price           NUMERIC(10,2) NOT NULL DEFAULT 0,
		billing_interval TEXT NOT NULL DEFAULT 'month',
		status          TEXT NOT NULL DEFAULT 'ACTIVE',
		stripe_price_id TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name               TEXT NOT NULL,
		email              TEXT NOT NULL UNIQUE,
		password_hash      TEXT NOT NULL,
		role               TEXT NOT NULL DEFAULT 'CUSTOMER',
		stripe_customer_id TEXT,
		active_plan_id     UUID REFERENCES plans(id) ON DELETE SET NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS csv_uploads (
		id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		filename       TEXT NOT NULL,
		filepath       TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'ACTIVE',
		uploaded_by_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		summary_json   JSONB,
		uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS csv_uploads_uploaded_by_idx ON csv_uploads (uploaded_by_id, uploaded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id           UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plan_id           UUID NOT NULL REFERENCES plans(id),
		plan_name         TEXT NOT NULL,
		amount            NUMERIC(10,2) NOT NULL,
		status            TEXT NOT NULL DEFAULT 'PENDING',
		stripe_session_id TEXT NOT NULL UNIQUE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates missing tables. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
