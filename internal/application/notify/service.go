package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/notification"
	"github.com/jiazengp/peekd/internal/domain/peek"
	"github.com/jiazengp/peekd/internal/infrastructure/sse"
)

// Service fans lifecycle events out to the participants involved, over the
// SSE hub. Delivery is best effort: a participant with no live connection
// simply misses the event, and slow consumers are skipped by the hub.
type Service struct {
	hub    *sse.Hub
	logger zerolog.Logger
}

func NewService(hub *sse.Hub, logger zerolog.Logger) *Service {
	return &Service{
		hub:    hub,
		logger: logger.With().Str("service", "notify").Logger(),
	}
}

type requestPayload struct {
	RequestID       uuid.UUID `json:"request_id"`
	Requester       uuid.UUID `json:"requester"`
	Target          uuid.UUID `json:"target"`
	AutoAccept      string    `json:"auto_accept,omitempty"`
	AutoAcceptAfter string    `json:"auto_accept_after,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type resolvedPayload struct {
	RequestID uuid.UUID `json:"request_id"`
	Requester uuid.UUID `json:"requester"`
	Target    uuid.UUID `json:"target"`
	Outcome   string    `json:"outcome"`
	// Initiator is empty for system-initiated resolutions (timeouts,
	// auto-accept, disconnect cleanup).
	Initiator string `json:"initiator,omitempty"`
}

type closedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Requester uuid.UUID `json:"requester"`
	Target    uuid.UUID `json:"target"`
	Reason    string    `json:"reason"`
	Duration  string    `json:"duration"`
}

// RequestCreated tells the target about the incoming request and echoes a
// sent confirmation back to the requester.
func (s *Service) RequestCreated(ctx context.Context, req *peek.Request, autoDelay time.Duration) {
	p := requestPayload{
		RequestID: req.RequestID,
		Requester: req.Requester,
		Target:    req.Target,
		CreatedAt: req.CreatedAt,
	}
	if req.AutoAccept != peek.AutoAcceptNone {
		p.AutoAccept = string(req.AutoAccept)
		p.AutoAcceptAfter = autoDelay.String()
	}
	s.send(req.Target, notification.EventRequestCreated, p)
	s.send(req.Requester, notification.EventRequestSent, p)
}

// RequestResolved tells both participants about a terminal outcome.
func (s *Service) RequestResolved(ctx context.Context, outcome peek.Status, req *peek.Request, actor uuid.UUID) {
	p := resolvedPayload{
		RequestID: req.RequestID,
		Requester: req.Requester,
		Target:    req.Target,
		Outcome:   string(outcome),
	}
	if actor != uuid.Nil && (actor == req.Requester || actor == req.Target) {
		p.Initiator = actor.String()
	}
	s.send(req.Requester, notification.EventResolved, p)
	s.send(req.Target, notification.EventResolved, p)
}

// SessionClosed tells both ends that their session ended and why.
func (s *Service) SessionClosed(ctx context.Context, session *peek.Session, reason string) {
	p := closedPayload{
		SessionID: session.SessionID,
		Requester: session.Requester,
		Target:    session.Target,
		Reason:    reason,
		Duration:  session.Duration(time.Now().UTC()).Truncate(time.Millisecond).String(),
	}
	s.send(session.Requester, notification.EventSessionClosed, p)
	s.send(session.Target, notification.EventSessionClosed, p)
}

func (s *Service) send(participant uuid.UUID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		return
	}
	s.hub.BroadcastToParticipant(participant, notification.NewSSEMessage(event, data))
}
