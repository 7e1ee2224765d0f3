package peek

import (
	"testing"

	"github.com/google/uuid"
)

func TestRequestTransitionsFromPending(t *testing.T) {
	for _, target := range []Status{StatusAccepted, StatusDenied, StatusCancelled, StatusExpired} {
		r := NewRequest(uuid.New(), uuid.New(), AutoAcceptNone)
		if !r.CanTransitionTo(target) {
			t.Fatalf("expected pending -> %s to be allowed", target)
		}
	}
}

func TestRequestTerminalStatesAreFinal(t *testing.T) {
	terminals := []func(*Request) error{
		(*Request).Accept,
		(*Request).Deny,
		(*Request).Cancel,
		(*Request).Expire,
	}
	for _, resolve := range terminals {
		r := NewRequest(uuid.New(), uuid.New(), AutoAcceptNone)
		if err := resolve(r); err != nil {
			t.Fatalf("first transition failed: %v", err)
		}
		if r.ResolvedAt == nil {
			t.Fatal("expected ResolvedAt to be set")
		}
		for _, again := range terminals {
			if err := again(r); err != ErrNotPending {
				t.Fatalf("expected ErrNotPending from %s, got %v", r.Status, err)
			}
		}
	}
}

func TestRequestInvolves(t *testing.T) {
	requester := uuid.New()
	target := uuid.New()
	r := NewRequest(requester, target, AutoAcceptWhitelist)
	if !r.Involves(requester) || !r.Involves(target) {
		t.Fatal("expected both participants to be involved")
	}
	if r.Involves(uuid.New()) {
		t.Fatal("expected stranger not to be involved")
	}
}

func TestExpireAfterAcceptIsNoOpError(t *testing.T) {
	r := NewRequest(uuid.New(), uuid.New(), AutoAcceptNone)
	if err := r.Accept(); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := r.Expire(); err != ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if r.Status != StatusAccepted {
		t.Fatalf("expected status to stay ACCEPTED, got %s", r.Status)
	}
}
