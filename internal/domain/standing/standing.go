package standing

import (
	"time"

	"github.com/google/uuid"
)

// ListKind distinguishes the two per-participant identity lists.
type ListKind string

const (
	ListWhitelist ListKind = "WHITELIST"
	ListBlacklist ListKind = "BLACKLIST"
)

// Prefs holds a participant's durable peek preferences. The zero value is the
// default standing for a participant that never configured anything.
type Prefs struct {
	ParticipantID    uuid.UUID `json:"participantId"`
	AutoAccept       bool      `json:"autoAccept"`
	RequireWhitelist bool      `json:"requireWhitelist"`
	BypassDistance   bool      `json:"bypassDistance"`
	BypassBusy       bool      `json:"bypassBusy"`
	BypassCooldown   bool      `json:"bypassCooldown"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Entry is a single whitelist or blacklist membership.
type Entry struct {
	OwnerID   uuid.UUID `json:"ownerId"`
	MemberID  uuid.UUID `json:"memberId"`
	Kind      ListKind  `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}
