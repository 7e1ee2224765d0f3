package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/peek"
)

// StatsRepository records terminal request outcomes and closed sessions.
// It is an optional sink: the engine runs fine without it, and a failed
// insert is logged and dropped rather than surfaced to the participant.
type StatsRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewStatsRepository(pool *pgxpool.Pool, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{
		pool:   pool,
		logger: logger.With().Str("service", "stats").Logger(),
	}
}

func (r *StatsRepository) RecordResolution(ctx context.Context, req *peek.Request) {
	resolvedAt := time.Now().UTC()
	if req.ResolvedAt != nil {
		resolvedAt = *req.ResolvedAt
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO peek_request_outcomes
		(request_id, requester_id, target_id, outcome, auto_accept, created_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (request_id) DO NOTHING
	`, req.RequestID, req.Requester, req.Target, req.Status, req.AutoAccept, req.CreatedAt, resolvedAt)
	if err != nil {
		r.logger.Warn().Err(err).Str("request_id", req.RequestID.String()).Msg("failed to record request outcome")
	}
}

func (r *StatsRepository) RecordSessionClosed(ctx context.Context, s *peek.Session, endedAt time.Time, reason string) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO peek_session_log
		(session_id, requester_id, target_id, started_at, ended_at, end_reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (session_id) DO NOTHING
	`, s.SessionID, s.Requester, s.Target, s.StartedAt, endedAt, reason)
	if err != nil {
		r.logger.Warn().Err(err).Str("session_id", s.SessionID.String()).Msg("failed to record session close")
	}
}
