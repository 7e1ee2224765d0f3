package peek

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a peek request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDenied    Status = "DENIED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Decision represents an actor's response to a pending request.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionDeny   Decision = "DENY"
)

// AutoAcceptMode records why a request was armed for automatic acceptance.
type AutoAcceptMode string

const (
	AutoAcceptNone       AutoAcceptMode = "NONE"
	AutoAcceptPreference AutoAcceptMode = "PREFERENCE"
	AutoAcceptWhitelist  AutoAcceptMode = "WHITELIST"
)

var (
	ErrNotPending            = errors.New("request is not pending")
	ErrUnauthorized          = errors.New("actor not authorized for this request")
	ErrDuplicatePending      = errors.New("a pending request already exists for this pair")
	ErrRequestNotFound       = errors.New("request not found")
	ErrParticipantBusy       = errors.New("participant already in an active session")
	ErrNoActiveSession       = errors.New("no active session for participant")
	ErrAlreadyResolved       = errors.New("request already resolved")
	ErrInternalInconsistency = errors.New("session registry state inconsistent with request state")
)

// Request represents a proposed peek relationship awaiting resolution.
type Request struct {
	RequestID  uuid.UUID      `json:"requestId"`
	Requester  uuid.UUID      `json:"requesterId"`
	Target     uuid.UUID      `json:"targetId"`
	Status     Status         `json:"status"`
	AutoAccept AutoAcceptMode `json:"autoAccept"`
	CreatedAt  time.Time      `json:"createdAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
}

// NewRequest creates a pending request.
func NewRequest(requester, target uuid.UUID, auto AutoAcceptMode) *Request {
	return &Request{
		RequestID:  uuid.New(),
		Requester:  requester,
		Target:     target,
		Status:     StatusPending,
		AutoAccept: auto,
		CreatedAt:  time.Now().UTC(),
	}
}

// CanTransitionTo validates a request status transition. The four resolved
// states are terminal: once left PENDING, a request never moves again.
func (r *Request) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusAccepted, StatusDenied, StatusCancelled, StatusExpired},
		StatusAccepted:  {},
		StatusDenied:    {},
		StatusCancelled: {},
		StatusExpired:   {},
	}
	allowed := transitions[r.Status]
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Accept resolves the request as accepted.
func (r *Request) Accept() error {
	return r.resolve(StatusAccepted)
}

// Deny resolves the request as denied.
func (r *Request) Deny() error {
	return r.resolve(StatusDenied)
}

// Cancel resolves the request as cancelled.
func (r *Request) Cancel() error {
	return r.resolve(StatusCancelled)
}

// Expire resolves the request as expired.
func (r *Request) Expire() error {
	return r.resolve(StatusExpired)
}

func (r *Request) resolve(target Status) error {
	if !r.CanTransitionTo(target) {
		return ErrNotPending
	}
	now := time.Now().UTC()
	r.Status = target
	r.ResolvedAt = &now
	return nil
}

// IsPending reports whether the request is still awaiting resolution.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// Involves reports whether the identity is either side of the request.
func (r *Request) Involves(id uuid.UUID) bool {
	return r.Requester == id || r.Target == id
}
