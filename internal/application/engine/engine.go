package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/peek"
	"github.com/jiazengp/peekd/internal/domain/policy"
	"github.com/jiazengp/peekd/internal/obs"
)

// Config holds the engine's live-reloadable limits.
type Config struct {
	RequestTimeout  time.Duration
	AutoAcceptDelay time.Duration
	Cooldown        time.Duration
	MaxSessions     int
	MaxDistance     float64
	Rule            *policy.Rule
}

// Engine is the request & session lifecycle core. A single mutex serializes
// every mutation: actor calls, timer firings, and disconnect cleanup all pass
// through it, so policy evaluation and the busy check are atomic with the
// transition they guard. Notifications and statistics are emitted after the
// lock is released.
type Engine struct {
	scheduler Scheduler
	standing  StandingSource
	notifier  Notifier
	stats     StatsSink
	logger    zerolog.Logger

	mu       sync.Mutex
	cfg      Config
	store    *requestStore
	sessions *sessionRegistry
}

// NewEngine creates an engine instance.
func NewEngine(
	scheduler Scheduler,
	standing StandingSource,
	notifier Notifier,
	stats StatsSink,
	cfg Config,
	logger zerolog.Logger,
) *Engine {
	if stats == nil {
		stats = NopStats{}
	}
	return &Engine{
		scheduler: scheduler,
		standing:  standing,
		notifier:  notifier,
		stats:     stats,
		cfg:       cfg,
		store:     newRequestStore(),
		sessions:  newSessionRegistry(),
		logger:    logger.With().Str("service", "engine").Logger(),
	}
}

// UpdateConfig swaps the live limits. Requests already in flight keep the
// timers they were armed with.
func (e *Engine) UpdateConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	e.logger.Info().
		Dur("request_timeout", cfg.RequestTimeout).
		Dur("auto_accept_delay", cfg.AutoAcceptDelay).
		Dur("cooldown", cfg.Cooldown).
		Int("max_sessions", cfg.MaxSessions).
		Float64("max_distance", cfg.MaxDistance).
		Msg("engine config updated")
}

// RequestPeek validates and creates a pending request, arming its timeout
// and, when the target auto-accepts or whitelists the requester, the
// auto-accept timer. Returns *policy.Denial or peek.ErrDuplicatePending on
// rejection.
func (e *Engine) RequestPeek(ctx context.Context, requester, target uuid.UUID) (*peek.Request, error) {
	e.mu.Lock()
	if e.store.hasPending(requester, target) {
		e.mu.Unlock()
		return nil, peek.ErrDuplicatePending
	}

	st := e.standing.Snapshot(requester, target)
	in := policy.Input{
		Requester:      requester,
		Target:         target,
		Standing:       st,
		RequesterBusy:  e.sessions.isActive(requester),
		TargetBusy:     e.sessions.isActive(target),
		ActiveSessions: e.sessions.count(),
		MaxSessions:    e.cfg.MaxSessions,
		MaxDistance:    e.cfg.MaxDistance,
		Rule:           e.cfg.Rule,
		Now:            time.Now().UTC(),
	}
	if d := policy.Evaluate(in); d != nil {
		e.mu.Unlock()
		obs.RequestDenied(string(d.Reason))
		return nil, d
	}

	mode := peek.AutoAcceptNone
	switch {
	case st.TargetAutoAccept:
		mode = peek.AutoAcceptPreference
	case st.RequesterWhitelisted:
		mode = peek.AutoAcceptWhitelist
	}

	req := peek.NewRequest(requester, target, mode)
	rs := &requestState{req: req}
	if err := e.store.add(rs); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	id := req.RequestID
	rs.timeout = e.scheduler.Schedule(e.cfg.RequestTimeout, func() {
		e.expire(id)
	})
	var autoDelay time.Duration
	if mode != peek.AutoAcceptNone {
		// Whitelist-triggered auto-accept shares the configured delay.
		autoDelay = e.cfg.AutoAcceptDelay
		rs.auto = e.scheduler.Schedule(autoDelay, func() {
			e.autoAcceptFire(id)
		})
	}
	cp := *req
	e.mu.Unlock()

	obs.RequestCreated()
	e.logger.Info().
		Str("request_id", id.String()).
		Str("requester", requester.String()).
		Str("target", target.String()).
		Str("auto_accept", string(mode)).
		Msg("peek request created")
	e.notifier.RequestCreated(ctx, &cp, autoDelay)
	return &cp, nil
}

// Respond applies the target's decision to a pending request.
func (e *Engine) Respond(ctx context.Context, id uuid.UUID, actor uuid.UUID, decision peek.Decision) error {
	switch decision {
	case peek.DecisionAccept:
		return e.accept(ctx, id, actor, false)
	case peek.DecisionDeny:
		return e.deny(ctx, id, actor)
	default:
		return peek.ErrUnauthorized
	}
}

func (e *Engine) accept(ctx context.Context, id uuid.UUID, actor uuid.UUID, system bool) error {
	e.mu.Lock()
	rs := e.store.get(id)
	if rs == nil || !rs.req.IsPending() {
		e.mu.Unlock()
		return peek.ErrNotPending
	}
	req := rs.req
	if !system && actor != req.Target {
		e.mu.Unlock()
		return peek.ErrUnauthorized
	}
	// The registry is the single authority on exclusivity; the session opens
	// before the request transitions so a refusal leaves the request pending
	// and untouched. The timeout will expire it unless the blocker clears
	// and the actor retries.
	session, err := e.sessions.open(req.Requester, req.Target)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if err := req.Accept(); err != nil {
		// Pending was verified under this lock; a refused transition means
		// the synchronization boundary was bypassed. Abort without touching
		// the store so the request is not lost silently.
		e.sessions.close(session)
		e.mu.Unlock()
		e.logger.Error().
			Str("request_id", id.String()).
			Str("status", string(req.Status)).
			Err(err).
			Msg("accept validated as pending but the transition was refused")
		return peek.ErrInternalInconsistency
	}
	rs.cancelTimers()
	e.store.remove(id)
	e.stampCooldownLocked(req.Requester)
	reqCopy := *req
	active := e.sessions.count()
	e.mu.Unlock()

	obs.RequestResolved(string(peek.StatusAccepted))
	obs.SetActiveSessions(active)
	e.logger.Info().
		Str("request_id", id.String()).
		Str("session_id", session.SessionID.String()).
		Bool("auto", system).
		Msg("peek request accepted")
	e.notifier.RequestResolved(ctx, peek.StatusAccepted, &reqCopy, actor)
	e.stats.RecordResolution(ctx, &reqCopy)
	return nil
}

func (e *Engine) deny(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	e.mu.Lock()
	rs := e.store.get(id)
	if rs == nil || !rs.req.IsPending() {
		e.mu.Unlock()
		return peek.ErrNotPending
	}
	req := rs.req
	if actor != req.Target {
		e.mu.Unlock()
		return peek.ErrUnauthorized
	}
	if err := req.Deny(); err != nil {
		e.mu.Unlock()
		return peek.ErrNotPending
	}
	rs.cancelTimers()
	e.store.remove(id)
	e.stampCooldownLocked(req.Requester)
	reqCopy := *req
	e.mu.Unlock()

	obs.RequestResolved(string(peek.StatusDenied))
	e.logger.Info().Str("request_id", id.String()).Msg("peek request denied")
	e.notifier.RequestResolved(ctx, peek.StatusDenied, &reqCopy, actor)
	e.stats.RecordResolution(ctx, &reqCopy)
	return nil
}

// CancelRequest withdraws a pending request. Only the requester may cancel.
func (e *Engine) CancelRequest(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	e.mu.Lock()
	rs := e.store.get(id)
	if rs == nil || !rs.req.IsPending() {
		e.mu.Unlock()
		return peek.ErrNotPending
	}
	req := rs.req
	if actor != req.Requester {
		e.mu.Unlock()
		return peek.ErrUnauthorized
	}
	if err := req.Cancel(); err != nil {
		e.mu.Unlock()
		return peek.ErrNotPending
	}
	rs.cancelTimers()
	e.store.remove(id)
	e.stampCooldownLocked(req.Requester)
	reqCopy := *req
	e.mu.Unlock()

	obs.RequestResolved(string(peek.StatusCancelled))
	e.logger.Info().Str("request_id", id.String()).Msg("peek request cancelled")
	e.notifier.RequestResolved(ctx, peek.StatusCancelled, &reqCopy, actor)
	e.stats.RecordResolution(ctx, &reqCopy)
	return nil
}

// expire is the timeout timer callback. A request resolved in the race
// window is left untouched: explicit actions win, the timer no-ops.
func (e *Engine) expire(id uuid.UUID) {
	ctx := context.Background()
	e.mu.Lock()
	rs := e.store.get(id)
	if rs == nil || !rs.req.IsPending() {
		e.mu.Unlock()
		return
	}
	req := rs.req
	if err := req.Expire(); err != nil {
		e.mu.Unlock()
		return
	}
	rs.cancelTimers()
	e.store.remove(id)
	e.stampCooldownLocked(req.Requester)
	reqCopy := *req
	e.mu.Unlock()

	obs.RequestResolved(string(peek.StatusExpired))
	e.logger.Info().Str("request_id", id.String()).Msg("peek request expired")
	e.notifier.RequestResolved(ctx, peek.StatusExpired, &reqCopy, uuid.Nil)
	e.stats.RecordResolution(ctx, &reqCopy)
}

// autoAcceptFire is the auto-accept timer callback: a system-initiated
// accept that re-validates the pending state first.
func (e *Engine) autoAcceptFire(id uuid.UUID) {
	err := e.accept(context.Background(), id, uuid.Nil, true)
	switch err {
	case nil, peek.ErrNotPending:
		// Resolved, or an explicit action won the race.
	case peek.ErrParticipantBusy:
		// A session opened elsewhere since creation; the request stays
		// pending until its timeout.
		e.logger.Info().Str("request_id", id.String()).Msg("auto-accept skipped, participant busy")
	default:
		e.logger.Warn().Err(err).Str("request_id", id.String()).Msg("auto-accept failed")
	}
}

// StopSession closes the identity's active session.
func (e *Engine) StopSession(ctx context.Context, identity uuid.UUID) error {
	e.mu.Lock()
	session := e.sessions.activeFor(identity)
	if session == nil {
		e.mu.Unlock()
		return peek.ErrNoActiveSession
	}
	e.sessions.close(session)
	e.stampCooldownLocked(session.Requester)
	sessCopy := *session
	active := e.sessions.count()
	e.mu.Unlock()

	obs.SetActiveSessions(active)
	e.logger.Info().
		Str("session_id", sessCopy.SessionID.String()).
		Str("stopped_by", identity.String()).
		Msg("peek session stopped")
	endedAt := time.Now().UTC()
	e.notifier.SessionClosed(ctx, &sessCopy, "stopped")
	e.stats.RecordSessionClosed(ctx, &sessCopy, endedAt, "stopped")
	return nil
}

// HandleDisconnect cleans up after a participant leaves: pending requests
// they sent are cancelled, pending requests they were meant to answer are
// expired, their active session closes, and their presence is dropped.
// Safe to invoke repeatedly, including concurrently for both ends of a pair.
func (e *Engine) HandleDisconnect(ctx context.Context, identity uuid.UUID) {
	type resolution struct {
		outcome peek.Status
		req     peek.Request
	}

	e.mu.Lock()
	var resolutions []resolution
	for _, rs := range e.store.involving(identity) {
		req := rs.req
		var outcome peek.Status
		var err error
		if req.Requester == identity {
			outcome = peek.StatusCancelled
			err = req.Cancel()
		} else {
			outcome = peek.StatusExpired
			err = req.Expire()
		}
		if err != nil {
			continue
		}
		rs.cancelTimers()
		e.store.remove(req.RequestID)
		e.stampCooldownLocked(req.Requester)
		resolutions = append(resolutions, resolution{outcome: outcome, req: *req})
	}

	var closed *peek.Session
	if session := e.sessions.activeFor(identity); session != nil {
		e.sessions.close(session)
		e.stampCooldownLocked(session.Requester)
		cp := *session
		closed = &cp
	}
	active := e.sessions.count()
	e.mu.Unlock()

	e.standing.ClearPresence(identity)
	obs.SetActiveSessions(active)
	for _, r := range resolutions {
		obs.RequestResolved(string(r.outcome))
		// Cleanup-driven resolutions are system-initiated: neither side acted.
		e.notifier.RequestResolved(ctx, r.outcome, &r.req, uuid.Nil)
		e.stats.RecordResolution(ctx, &r.req)
	}
	if closed != nil {
		endedAt := time.Now().UTC()
		e.notifier.SessionClosed(ctx, closed, "disconnect")
		e.stats.RecordSessionClosed(ctx, closed, endedAt, "disconnect")
	}
	if len(resolutions) > 0 || closed != nil {
		e.logger.Info().
			Str("participant", identity.String()).
			Int("requests_resolved", len(resolutions)).
			Bool("session_closed", closed != nil).
			Msg("disconnect cleanup")
	}
}

// PendingFor lists the pending requests targeting the identity.
func (e *Engine) PendingFor(target uuid.UUID) []*peek.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.pendingFor(target)
}

// GetRequest returns a copy of a pending request.
func (e *Engine) GetRequest(id uuid.UUID) (*peek.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs := e.store.get(id)
	if rs == nil {
		return nil, peek.ErrRequestNotFound
	}
	cp := *rs.req
	return &cp, nil
}

// IsActive reports whether the identity is in an active session.
func (e *Engine) IsActive(identity uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.isActive(identity)
}

// ActiveSessionFor returns a copy of the identity's session, or nil.
func (e *Engine) ActiveSessionFor(identity uuid.UUID) *peek.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	session := e.sessions.activeFor(identity)
	if session == nil {
		return nil
	}
	cp := *session
	return &cp
}

// ActiveSessions returns the number of open sessions.
func (e *Engine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.count()
}

// PendingRequests returns the number of in-flight requests.
func (e *Engine) PendingRequests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.len()
}

// stampCooldownLocked starts the requester's cooldown window. Called with
// the engine lock held; the standing source has its own synchronization and
// never calls back into the engine.
func (e *Engine) stampCooldownLocked(requester uuid.UUID) {
	if e.cfg.Cooldown <= 0 {
		return
	}
	e.standing.StampCooldown(requester, time.Now().UTC().Add(e.cfg.Cooldown))
}
