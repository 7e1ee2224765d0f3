package engine

import (
	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/peek"
)

// sessionRegistry tracks active peek relationships and enforces that a
// participant appears in at most one, as either side. Like the store it is
// only touched under the engine lock.
type sessionRegistry struct {
	byID          map[uuid.UUID]*peek.Session
	byParticipant map[uuid.UUID]*peek.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		byID:          make(map[uuid.UUID]*peek.Session),
		byParticipant: make(map[uuid.UUID]*peek.Session),
	}
}

// open creates a session for the pair. Both identities must be free.
func (r *sessionRegistry) open(requester, target uuid.UUID) (*peek.Session, error) {
	if _, busy := r.byParticipant[requester]; busy {
		return nil, peek.ErrParticipantBusy
	}
	if _, busy := r.byParticipant[target]; busy {
		return nil, peek.ErrParticipantBusy
	}
	s := peek.NewSession(requester, target)
	r.byID[s.SessionID] = s
	r.byParticipant[requester] = s
	r.byParticipant[target] = s
	return s, nil
}

// close removes the session. Idempotent: closing an already-removed session
// is a no-op.
func (r *sessionRegistry) close(s *peek.Session) {
	if _, ok := r.byID[s.SessionID]; !ok {
		return
	}
	delete(r.byID, s.SessionID)
	delete(r.byParticipant, s.Requester)
	delete(r.byParticipant, s.Target)
}

func (r *sessionRegistry) isActive(id uuid.UUID) bool {
	_, ok := r.byParticipant[id]
	return ok
}

// activeFor returns the identity's session, or nil.
func (r *sessionRegistry) activeFor(id uuid.UUID) *peek.Session {
	return r.byParticipant[id]
}

func (r *sessionRegistry) count() int {
	return len(r.byID)
}
