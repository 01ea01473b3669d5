package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent. trips, trip_members, entries, entry_ratings,
// entry_reviews and the ai_* tables belong to the surrounding application
// and are created here only if missing.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS trips (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		is_public  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS trip_members (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (trip_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id              TEXT PRIMARY KEY,
		trip_id         TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		restaurant_name TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS entry_ratings (
		id       BIGSERIAL PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		user_id  TEXT NOT NULL,
		score    DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 10)
	)`,
	`CREATE TABLE IF NOT EXISTS entry_reviews (
		id         BIGSERIAL PRIMARY KEY,
		entry_id   TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		body       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ai_questions (
		id       TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
		question TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ai_answers (
		id            BIGSERIAL PRIMARY KEY,
		question_id   TEXT NOT NULL REFERENCES ai_questions(id) ON DELETE CASCADE,
		numeric_value DOUBLE PRECISION,
		text_value    TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`DO $$ BEGIN
		CREATE TYPE tournament_status AS ENUM ('active', 'completed', 'canceled');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,
	`CREATE TABLE IF NOT EXISTS tournaments (
		id            TEXT PRIMARY KEY,
		trip_id       TEXT NOT NULL,
		created_by    TEXT NOT NULL,
		status        tournament_status NOT NULL DEFAULT 'active',
		total_rounds  INT NOT NULL CHECK (total_rounds BETWEEN 2 AND 5),
		total_entries INT NOT NULL CHECK (total_entries >= 2),
		bracket_size  INT NOT NULL CHECK (bracket_size IN (4, 8, 16, 32)),
		seeded_order  TEXT[] NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT tournaments_trip_id_fkey FOREIGN KEY (trip_id) REFERENCES trips(id) ON DELETE CASCADE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS tournaments_one_active_per_trip
		ON tournaments (trip_id) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS votes (
		seq           BIGSERIAL PRIMARY KEY,
		id            TEXT NOT NULL UNIQUE,
		tournament_id TEXT NOT NULL,
		voter_id      TEXT NOT NULL,
		is_bye        BOOLEAN NOT NULL DEFAULT FALSE,
		round         INT NOT NULL,
		match_order   INT NOT NULL,
		entry_a       TEXT NOT NULL,
		entry_b       TEXT,
		winner_id     TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT votes_tournament_id_fkey FOREIGN KEY (tournament_id) REFERENCES tournaments(id) ON DELETE CASCADE,
		CONSTRAINT votes_bye_shape CHECK ((is_bye AND entry_b IS NULL AND winner_id = entry_a) OR (NOT is_bye AND entry_b IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS votes_tournament_voter_idx ON votes (tournament_id, voter_id, seq)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS votes_one_per_match ON votes (tournament_id, voter_id, round, match_order)`,
	`CREATE TABLE IF NOT EXISTS ranking_snapshots (
		id           BIGSERIAL PRIMARY KEY,
		trip_id      TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		rankings     JSONB NOT NULL,
		weights      JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ranking_snapshots_trip_idx ON ranking_snapshots (trip_id, generated_at DESC)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}
