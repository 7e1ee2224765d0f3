package peek

import (
	"time"

	"github.com/google/uuid"
)

// Session represents an active, accepted peek relationship.
type Session struct {
	SessionID uuid.UUID `json:"sessionId"`
	Requester uuid.UUID `json:"requesterId"`
	Target    uuid.UUID `json:"targetId"`
	StartedAt time.Time `json:"startedAt"`
}

// NewSession opens a session for an accepted request.
func NewSession(requester, target uuid.UUID) *Session {
	return &Session{
		SessionID: uuid.New(),
		Requester: requester,
		Target:    target,
		StartedAt: time.Now().UTC(),
	}
}

// Involves reports whether the identity is either side of the session.
func (s *Session) Involves(id uuid.UUID) bool {
	return s.Requester == id || s.Target == id
}

// Duration returns the session length as of now.
func (s *Session) Duration(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
