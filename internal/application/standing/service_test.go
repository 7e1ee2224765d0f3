package standing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jiazengp/peekd/internal/domain/policy"
	domainStanding "github.com/jiazengp/peekd/internal/domain/standing"
	"github.com/jiazengp/peekd/internal/infrastructure/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), memory.NewStandingRepository(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestPrefsDefault(t *testing.T) {
	svc := newTestService(t)
	id := uuid.New()
	p := svc.Prefs(id)
	if p.ParticipantID != id || p.AutoAccept || p.RequireWhitelist {
		t.Fatalf("expected zero-value prefs, got %+v", p)
	}
}

func TestUpdatePrefsAndSnapshot(t *testing.T) {
	svc := newTestService(t)
	requester := uuid.New()
	target := uuid.New()

	if err := svc.UpdatePrefs(context.Background(), domainStanding.Prefs{
		ParticipantID: target,
		AutoAccept:    true,
	}); err != nil {
		t.Fatalf("UpdatePrefs failed: %v", err)
	}
	st := svc.Snapshot(requester, target)
	if !st.TargetAutoAccept {
		t.Fatal("expected snapshot to reflect target auto-accept")
	}
	if st.RequesterWhitelisted || st.TargetBlacklistedRequester {
		t.Fatal("expected no list memberships")
	}
}

func TestListMembership(t *testing.T) {
	svc := newTestService(t)
	owner := uuid.New()
	member := uuid.New()
	ctx := context.Background()

	if err := svc.AddToList(ctx, owner, member, domainStanding.ListWhitelist); err != nil {
		t.Fatalf("AddToList failed: %v", err)
	}
	if !svc.OnList(owner, member, domainStanding.ListWhitelist) {
		t.Fatal("expected membership after add")
	}
	if svc.OnList(owner, member, domainStanding.ListBlacklist) {
		t.Fatal("kinds must not leak into each other")
	}
	st := svc.Snapshot(member, owner)
	if !st.RequesterWhitelisted {
		t.Fatal("expected snapshot whitelist membership")
	}
	if err := svc.RemoveFromList(ctx, owner, member, domainStanding.ListWhitelist); err != nil {
		t.Fatalf("RemoveFromList failed: %v", err)
	}
	if svc.OnList(owner, member, domainStanding.ListWhitelist) {
		t.Fatal("expected membership removed")
	}
}

func TestPresenceLifecycle(t *testing.T) {
	svc := newTestService(t)
	id := uuid.New()
	svc.UpdatePresence(id, policy.Position{X: 1, Y: 2, Z: 3, Dimension: "overworld"})
	pos, ok := svc.Presence(id)
	if !ok || pos.Dimension != "overworld" {
		t.Fatalf("expected presence, got %v %v", pos, ok)
	}
	svc.ClearPresence(id)
	if _, ok := svc.Presence(id); ok {
		t.Fatal("expected presence cleared")
	}
}

func TestCooldownStamp(t *testing.T) {
	svc := newTestService(t)
	id := uuid.New()
	if !svc.CooldownUntil(id).IsZero() {
		t.Fatal("expected zero cooldown initially")
	}
	until := time.Now().UTC().Add(30 * time.Second)
	svc.StampCooldown(id, until)
	if got := svc.CooldownUntil(id); !got.Equal(until) {
		t.Fatalf("expected %v, got %v", until, got)
	}
	st := svc.Snapshot(id, uuid.New())
	if !st.CooldownUntil.Equal(until) {
		t.Fatal("expected snapshot to carry cooldown")
	}
}

func TestCachePrimedFromRepository(t *testing.T) {
	repo := memory.NewStandingRepository()
	ctx := context.Background()
	owner := uuid.New()
	member := uuid.New()
	_ = repo.SavePrefs(ctx, &domainStanding.Prefs{ParticipantID: owner, RequireWhitelist: true})
	_ = repo.AddEntry(ctx, &domainStanding.Entry{OwnerID: owner, MemberID: member, Kind: domainStanding.ListBlacklist})

	svc, err := NewService(ctx, repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if !svc.Prefs(owner).RequireWhitelist {
		t.Fatal("expected prefs loaded from repository")
	}
	st := svc.Snapshot(member, owner)
	if !st.TargetBlacklistedRequester {
		t.Fatal("expected blacklist entry loaded from repository")
	}
}
