package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jiazengp/peekd/internal/domain/standing"
)

// StandingRepository implements standing.Repository.
type StandingRepository struct {
	pool *pgxpool.Pool
}

func NewStandingRepository(pool *pgxpool.Pool) *StandingRepository {
	return &StandingRepository{pool: pool}
}

func (r *StandingRepository) LoadAll(ctx context.Context) ([]*standing.Prefs, []*standing.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT participant_id, auto_accept, require_whitelist, bypass_distance, bypass_busy, bypass_cooldown, updated_at
		FROM peek_prefs
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var prefs []*standing.Prefs
	for rows.Next() {
		p := &standing.Prefs{}
		if err := rows.Scan(&p.ParticipantID, &p.AutoAccept, &p.RequireWhitelist, &p.BypassDistance, &p.BypassBusy, &p.BypassCooldown, &p.UpdatedAt); err != nil {
			return nil, nil, err
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	listRows, err := r.pool.Query(ctx, `
		SELECT owner_id, member_id, kind, created_at FROM peek_list_entries
	`)
	if err != nil {
		return nil, nil, err
	}
	defer listRows.Close()
	var entries []*standing.Entry
	for listRows.Next() {
		e := &standing.Entry{}
		if err := listRows.Scan(&e.OwnerID, &e.MemberID, &e.Kind, &e.CreatedAt); err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
	}
	return prefs, entries, listRows.Err()
}

func (r *StandingRepository) SavePrefs(ctx context.Context, p *standing.Prefs) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO peek_prefs
		(participant_id, auto_accept, require_whitelist, bypass_distance, bypass_busy, bypass_cooldown, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (participant_id) DO UPDATE SET
			auto_accept=EXCLUDED.auto_accept,
			require_whitelist=EXCLUDED.require_whitelist,
			bypass_distance=EXCLUDED.bypass_distance,
			bypass_busy=EXCLUDED.bypass_busy,
			bypass_cooldown=EXCLUDED.bypass_cooldown,
			updated_at=EXCLUDED.updated_at
	`, p.ParticipantID, p.AutoAccept, p.RequireWhitelist, p.BypassDistance, p.BypassBusy, p.BypassCooldown, p.UpdatedAt)
	return err
}

func (r *StandingRepository) AddEntry(ctx context.Context, e *standing.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO peek_list_entries (owner_id, member_id, kind, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (owner_id, member_id, kind) DO NOTHING
	`, e.OwnerID, e.MemberID, e.Kind, e.CreatedAt)
	return err
}

func (r *StandingRepository) RemoveEntry(ctx context.Context, owner, member uuid.UUID, kind standing.ListKind) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM peek_list_entries WHERE owner_id=$1 AND member_id=$2 AND kind=$3
	`, owner, member, kind)
	return err
}
