package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jiazengp/peekd/internal/domain/peek"
	"github.com/jiazengp/peekd/internal/domain/policy"
)

// Timer is an armed one-shot callback that can be cancelled.
type Timer interface {
	// Cancel suppresses a future firing; returns true when this call
	// prevented the callback. Idempotent, safe after the callback ran.
	Cancel() bool
}

// Scheduler arms one-shot delayed callbacks. Callbacks re-enter the engine
// through its public paths and therefore serialize on the engine lock.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

// StandingSource is the policy data provider. Snapshots must be cheap and
// non-blocking: the engine calls Snapshot while holding its lock so creation
// is a single atomic check-then-act.
type StandingSource interface {
	Snapshot(requester, target uuid.UUID) policy.Standing
	StampCooldown(id uuid.UUID, until time.Time)
	ClearPresence(id uuid.UUID)
}

// Notifier is the outbound side-effect boundary. Implementations resolve
// identities to live participants at send time; the engine hands over only
// ids and immutable copies.
type Notifier interface {
	RequestCreated(ctx context.Context, req *peek.Request, autoDelay time.Duration)
	// RequestResolved reports a terminal outcome. For cancellations the
	// actor distinguishes requester-initiated from system cleanup.
	RequestResolved(ctx context.Context, outcome peek.Status, req *peek.Request, actor uuid.UUID)
	SessionClosed(ctx context.Context, session *peek.Session, reason string)
}

// StatsSink is an optional recorder of terminal outcomes. Implementations
// must tolerate being called for every resolution and never block the
// caller on delivery guarantees.
type StatsSink interface {
	RecordResolution(ctx context.Context, req *peek.Request)
	RecordSessionClosed(ctx context.Context, session *peek.Session, endedAt time.Time, reason string)
}

// NopStats discards all statistics. Used when no database is configured.
type NopStats struct{}

func (NopStats) RecordResolution(context.Context, *peek.Request) {}
func (NopStats) RecordSessionClosed(context.Context, *peek.Session, time.Time, string) {
}
