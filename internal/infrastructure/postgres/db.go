package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgx connection pool.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, config)
}

// EnsureSchema creates the peekd tables when missing. The engine itself is
// stateless; only standing preferences and the statistics sink persist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS peek_prefs (
			participant_id    UUID PRIMARY KEY,
			auto_accept       BOOLEAN NOT NULL DEFAULT FALSE,
			require_whitelist BOOLEAN NOT NULL DEFAULT FALSE,
			bypass_distance   BOOLEAN NOT NULL DEFAULT FALSE,
			bypass_busy       BOOLEAN NOT NULL DEFAULT FALSE,
			bypass_cooldown   BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS peek_list_entries (
			owner_id   UUID NOT NULL,
			member_id  UUID NOT NULL,
			kind       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (owner_id, member_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS peek_request_outcomes (
			request_id  UUID PRIMARY KEY,
			requester_id UUID NOT NULL,
			target_id   UUID NOT NULL,
			outcome     TEXT NOT NULL,
			auto_accept TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			resolved_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS peek_session_log (
			session_id  UUID PRIMARY KEY,
			requester_id UUID NOT NULL,
			target_id   UUID NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			ended_at    TIMESTAMPTZ NOT NULL,
			end_reason  TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
