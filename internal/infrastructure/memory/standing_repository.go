package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/standing"
)

// StandingRepository is an in-memory standing.Repository used when no
// database is configured. Preferences survive only for the process lifetime,
// which matches environments where standing data is re-pushed by the host on
// participant join.
type StandingRepository struct {
	mu      sync.Mutex
	prefs   map[uuid.UUID]standing.Prefs
	entries map[entryKey]standing.Entry
}

type entryKey struct {
	owner  uuid.UUID
	member uuid.UUID
	kind   standing.ListKind
}

// NewStandingRepository creates an empty in-memory repository.
func NewStandingRepository() *StandingRepository {
	return &StandingRepository{
		prefs:   make(map[uuid.UUID]standing.Prefs),
		entries: make(map[entryKey]standing.Entry),
	}
}

func (r *StandingRepository) LoadAll(ctx context.Context) ([]*standing.Prefs, []*standing.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefs := make([]*standing.Prefs, 0, len(r.prefs))
	for _, p := range r.prefs {
		p := p
		prefs = append(prefs, &p)
	}
	entries := make([]*standing.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		e := e
		entries = append(entries, &e)
	}
	return prefs, entries, nil
}

func (r *StandingRepository) SavePrefs(ctx context.Context, prefs *standing.Prefs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[prefs.ParticipantID] = *prefs
	return nil
}

func (r *StandingRepository) AddEntry(ctx context.Context, entry *standing.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entryKey{entry.OwnerID, entry.MemberID, entry.Kind}] = *entry
	return nil
}

func (r *StandingRepository) RemoveEntry(ctx context.Context, owner, member uuid.UUID, kind standing.ListKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, entryKey{owner, member, kind})
	return nil
}
