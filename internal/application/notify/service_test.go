package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/notification"
	"github.com/jiazengp/peekd/internal/domain/peek"
	"github.com/jiazengp/peekd/internal/infrastructure/sse"
)

func receive(t *testing.T, c *notification.SSEClient) *notification.SSEMessage {
	t.Helper()
	select {
	case msg := <-c.MessageChan:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for SSE message")
		return nil
	}
}

func TestRequestCreatedNotifiesBothSides(t *testing.T) {
	hub := sse.NewHub()
	defer hub.Stop()
	svc := NewService(hub, zerolog.Nop())

	req := peek.NewRequest(uuid.New(), uuid.New(), peek.AutoAcceptPreference)
	requesterConn := notification.NewSSEClient("c1", req.Requester)
	targetConn := notification.NewSSEClient("c2", req.Target)
	hub.Register(requesterConn)
	hub.Register(targetConn)

	svc.RequestCreated(context.Background(), req, 10*time.Second)

	got := receive(t, targetConn)
	if got.Event != notification.EventRequestCreated {
		t.Fatalf("expected %s, got %s", notification.EventRequestCreated, got.Event)
	}
	var p map[string]any
	if err := json.Unmarshal(got.Data, &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if p["auto_accept_after"] != "10s" {
		t.Fatalf("expected auto_accept_after 10s, got %v", p["auto_accept_after"])
	}

	echo := receive(t, requesterConn)
	if echo.Event != notification.EventRequestSent {
		t.Fatalf("expected %s, got %s", notification.EventRequestSent, echo.Event)
	}
}

func TestResolvedDistinguishesInitiator(t *testing.T) {
	hub := sse.NewHub()
	defer hub.Stop()
	svc := NewService(hub, zerolog.Nop())

	req := peek.NewRequest(uuid.New(), uuid.New(), peek.AutoAcceptNone)
	conn := notification.NewSSEClient("c1", req.Requester)
	hub.Register(conn)

	svc.RequestResolved(context.Background(), peek.StatusCancelled, req, req.Requester)
	var p map[string]any
	msg := receive(t, conn)
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if p["initiator"] != req.Requester.String() {
		t.Fatalf("expected initiator %s, got %v", req.Requester, p["initiator"])
	}

	// System-initiated resolutions carry no initiator.
	svc.RequestResolved(context.Background(), peek.StatusAccepted, req, uuid.Nil)
	msg = receive(t, conn)
	p = nil
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if _, ok := p["initiator"]; ok {
		t.Fatal("system resolution must not carry an initiator")
	}
}

func TestSessionClosedNotifiesBothEnds(t *testing.T) {
	hub := sse.NewHub()
	defer hub.Stop()
	svc := NewService(hub, zerolog.Nop())

	session := peek.NewSession(uuid.New(), uuid.New())
	a := notification.NewSSEClient("c1", session.Requester)
	b := notification.NewSSEClient("c2", session.Target)
	hub.Register(a)
	hub.Register(b)

	svc.SessionClosed(context.Background(), session, "disconnect")

	for _, conn := range []*notification.SSEClient{a, b} {
		msg := receive(t, conn)
		if msg.Event != notification.EventSessionClosed {
			t.Fatalf("expected %s, got %s", notification.EventSessionClosed, msg.Event)
		}
		var p map[string]any
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if p["reason"] != "disconnect" {
			t.Fatalf("expected disconnect reason, got %v", p["reason"])
		}
		raw, ok := p["duration"].(string)
		if !ok {
			t.Fatalf("expected duration string, got %v", p["duration"])
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			t.Fatalf("bad duration %q: %v", raw, err)
		}
	}
}
