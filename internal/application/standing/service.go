package standing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/policy"
	domainStanding "github.com/jiazengp/peekd/internal/domain/standing"
)

// Service owns per-participant standing data: durable preferences and
// whitelist/blacklist membership (write-through cached over the repository)
// plus ephemeral presence and cooldown stamps (memory only). It is the policy
// data provider consulted by the engine; all reads are served from the cache
// so snapshotting never blocks on storage.
type Service struct {
	repo   domainStanding.Repository
	logger zerolog.Logger

	mu        sync.RWMutex
	prefs     map[uuid.UUID]*domainStanding.Prefs
	lists     map[listKey]struct{}
	presence  map[uuid.UUID]policy.Position
	cooldowns map[uuid.UUID]time.Time
}

type listKey struct {
	owner  uuid.UUID
	member uuid.UUID
	kind   domainStanding.ListKind
}

// NewService creates a standing service and primes the cache from the
// repository.
func NewService(ctx context.Context, repo domainStanding.Repository, logger zerolog.Logger) (*Service, error) {
	s := &Service{
		repo:      repo,
		logger:    logger.With().Str("service", "standing").Logger(),
		prefs:     make(map[uuid.UUID]*domainStanding.Prefs),
		lists:     make(map[listKey]struct{}),
		presence:  make(map[uuid.UUID]policy.Position),
		cooldowns: make(map[uuid.UUID]time.Time),
	}
	prefs, entries, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range prefs {
		s.prefs[p.ParticipantID] = p
	}
	for _, e := range entries {
		s.lists[listKey{e.OwnerID, e.MemberID, e.Kind}] = struct{}{}
	}
	s.logger.Info().Int("prefs", len(prefs)).Int("list_entries", len(entries)).Msg("standing cache primed")
	return s, nil
}

// Prefs returns the participant's preferences, defaulted when never saved.
func (s *Service) Prefs(id uuid.UUID) domainStanding.Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[id]; ok {
		return *p
	}
	return domainStanding.Prefs{ParticipantID: id}
}

// UpdatePrefs replaces the participant's preferences.
func (s *Service) UpdatePrefs(ctx context.Context, prefs domainStanding.Prefs) error {
	prefs.UpdatedAt = time.Now().UTC()
	if err := s.repo.SavePrefs(ctx, &prefs); err != nil {
		return err
	}
	s.mu.Lock()
	p := prefs
	s.prefs[prefs.ParticipantID] = &p
	s.mu.Unlock()
	return nil
}

// AddToList records a whitelist or blacklist membership. Idempotent.
func (s *Service) AddToList(ctx context.Context, owner, member uuid.UUID, kind domainStanding.ListKind) error {
	entry := &domainStanding.Entry{
		OwnerID:   owner,
		MemberID:  member,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddEntry(ctx, entry); err != nil {
		return err
	}
	s.mu.Lock()
	s.lists[listKey{owner, member, kind}] = struct{}{}
	s.mu.Unlock()
	return nil
}

// RemoveFromList drops a membership. Idempotent.
func (s *Service) RemoveFromList(ctx context.Context, owner, member uuid.UUID, kind domainStanding.ListKind) error {
	if err := s.repo.RemoveEntry(ctx, owner, member, kind); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.lists, listKey{owner, member, kind})
	s.mu.Unlock()
	return nil
}

// OnList reports membership.
func (s *Service) OnList(owner, member uuid.UUID, kind domainStanding.ListKind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lists[listKey{owner, member, kind}]
	return ok
}

// ListMembers returns all members of the owner's list.
func (s *Service) ListMembers(owner uuid.UUID, kind domainStanding.ListKind) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []uuid.UUID
	for k := range s.lists {
		if k.owner == owner && k.kind == kind {
			out = append(out, k.member)
		}
	}
	return out
}

// UpdatePresence records a participant's live position.
func (s *Service) UpdatePresence(id uuid.UUID, pos policy.Position) {
	s.mu.Lock()
	s.presence[id] = pos
	s.mu.Unlock()
}

// Presence returns the participant's last known position, if any.
func (s *Service) Presence(id uuid.UUID) (policy.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.presence[id]
	return pos, ok
}

// ClearPresence drops presence on disconnect.
func (s *Service) ClearPresence(id uuid.UUID) {
	s.mu.Lock()
	delete(s.presence, id)
	s.mu.Unlock()
}

// StampCooldown marks the identity as cooling down until the given time.
// Called by the engine whenever a request resolves or a session ends.
func (s *Service) StampCooldown(id uuid.UUID, until time.Time) {
	s.mu.Lock()
	s.cooldowns[id] = until
	s.mu.Unlock()
}

// CooldownUntil returns the identity's cooldown deadline (zero when none).
func (s *Service) CooldownUntil(id uuid.UUID) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cooldowns[id]
}

// Snapshot derives the read-only policy standing for a prospective request.
func (s *Service) Snapshot(requester, target uuid.UUID) policy.Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := policy.Standing{
		CooldownUntil: s.cooldowns[requester],
	}
	if tp, ok := s.prefs[target]; ok {
		st.TargetAutoAccept = tp.AutoAccept
		st.TargetRequiresWhitelist = tp.RequireWhitelist
	}
	if rp, ok := s.prefs[requester]; ok {
		st.BypassDistance = rp.BypassDistance
		st.BypassBusy = rp.BypassBusy
		st.BypassCooldown = rp.BypassCooldown
	}
	if _, ok := s.lists[listKey{target, requester, domainStanding.ListWhitelist}]; ok {
		st.RequesterWhitelisted = true
	}
	if _, ok := s.lists[listKey{target, requester, domainStanding.ListBlacklist}]; ok {
		st.TargetBlacklistedRequester = true
	}
	if pos, ok := s.presence[requester]; ok {
		p := pos
		st.RequesterPos = &p
	}
	if pos, ok := s.presence[target]; ok {
		p := pos
		st.TargetPos = &p
	}
	return st
}
