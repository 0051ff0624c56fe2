package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied on every start, all statements are idempotent.
// A workout is unique per user, category and name within a calendar day.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS app_user (
		id            SERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		img           TEXT,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS blog (
		id         SERIAL PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		author_id  INTEGER NOT NULL REFERENCES app_user (id) ON DELETE CASCADE,
		tags       TEXT[] NOT NULL DEFAULT '{}',
		claps      INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS blog_created_at_idx ON blog (created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS workout (
		id              SERIAL PRIMARY KEY,
		user_id         INTEGER NOT NULL REFERENCES app_user (id) ON DELETE CASCADE,
		category        TEXT NOT NULL,
		workout_name    TEXT NOT NULL,
		sets            INTEGER NOT NULL DEFAULT 0,
		reps            INTEGER NOT NULL DEFAULT 0,
		weight          DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration        DOUBLE PRECISION NOT NULL DEFAULT 0,
		calories_burned DOUBLE PRECISION NOT NULL DEFAULT 0,
		logged_at       TIMESTAMPTZ NOT NULL,
		logged_on       DATE NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, category, workout_name, logged_on)
	);`,
	`CREATE INDEX IF NOT EXISTS workout_user_logged_at_idx ON workout (user_id, logged_at);`,
}

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range Schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
