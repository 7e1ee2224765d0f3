package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func baseInput() Input {
	return Input{
		Requester: uuid.New(),
		Target:    uuid.New(),
		Now:       time.Now().UTC(),
	}
}

func TestEvaluateAllow(t *testing.T) {
	if d := Evaluate(baseInput()); d != nil {
		t.Fatalf("expected allow, got %v", d)
	}
}

func TestEvaluateSelfTarget(t *testing.T) {
	in := baseInput()
	in.Target = in.Requester
	if d := Evaluate(in); d == nil || d.Reason != ReasonSelfTarget {
		t.Fatalf("expected SELF_TARGET, got %v", d)
	}
}

func TestEvaluateReasonPrecedence(t *testing.T) {
	// Every check tripped at once: the earliest one must win at each step as
	// prior failures are cleared.
	in := baseInput()
	in.Standing.TargetBlacklistedRequester = true
	in.Standing.TargetRequiresWhitelist = true
	in.Standing.RequesterPos = &Position{Dimension: "overworld"}
	in.Standing.TargetPos = &Position{X: 1000, Dimension: "nether"}
	in.RequesterBusy = true
	in.Standing.CooldownUntil = in.Now.Add(time.Minute)
	in.MaxDistance = 64

	expect := []Reason{
		ReasonBlacklisted,
		ReasonNotWhitelisted,
		ReasonDifferentDimension,
		ReasonTooFar,
		ReasonParticipantBusy,
		ReasonCooldown,
	}
	clear := []func(*Input){
		func(i *Input) { i.Standing.TargetBlacklistedRequester = false },
		func(i *Input) { i.Standing.TargetRequiresWhitelist = false },
		func(i *Input) { i.Standing.TargetPos.Dimension = "overworld" },
		func(i *Input) { i.Standing.TargetPos.X = 10 },
		func(i *Input) { i.RequesterBusy = false },
		func(i *Input) { i.Standing.CooldownUntil = time.Time{} },
	}
	for step, want := range expect {
		d := Evaluate(in)
		if d == nil || d.Reason != want {
			t.Fatalf("step %d: expected %s, got %v", step, want, d)
		}
		clear[step](&in)
	}
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected allow after clearing all checks, got %v", d)
	}
}

func TestEvaluateBypassFlags(t *testing.T) {
	in := baseInput()
	in.Standing.RequesterPos = &Position{Dimension: "overworld"}
	in.Standing.TargetPos = &Position{X: 1000, Dimension: "nether"}
	in.MaxDistance = 64
	in.Standing.BypassDistance = true
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected distance bypass to allow, got %v", d)
	}

	in = baseInput()
	in.TargetBusy = true
	in.Standing.BypassBusy = true
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected busy bypass to allow, got %v", d)
	}

	in = baseInput()
	in.Standing.CooldownUntil = in.Now.Add(time.Hour)
	in.Standing.BypassCooldown = true
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected cooldown bypass to allow, got %v", d)
	}
}

func TestEvaluateSessionLimit(t *testing.T) {
	in := baseInput()
	in.MaxSessions = 2
	in.ActiveSessions = 2
	if d := Evaluate(in); d == nil || d.Reason != ReasonSessionLimit {
		t.Fatalf("expected SESSION_LIMIT, got %v", d)
	}
	in.ActiveSessions = 1
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected allow below limit, got %v", d)
	}
}

func TestEvaluateUnknownPositionsSkipDistance(t *testing.T) {
	in := baseInput()
	in.MaxDistance = 1
	in.Standing.RequesterPos = &Position{X: 100, Dimension: "overworld"}
	// Target presence unknown: distance checks do not apply.
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected allow without target position, got %v", d)
	}
}

func TestCompileRule(t *testing.T) {
	if r, err := CompileRule("  "); err != nil || r != nil {
		t.Fatalf("expected empty rule to compile to nil, got %v %v", r, err)
	}
	if _, err := CompileRule("distance >"); err == nil {
		t.Fatal("expected syntax error")
	}
	r, err := CompileRule("distance > 32 && !requester_whitelisted")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if r.Source() == "" {
		t.Fatal("expected source to be retained")
	}
}

func TestEvaluateRule(t *testing.T) {
	rule, err := CompileRule("distance > 32")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	in := baseInput()
	in.Rule = rule
	in.Standing.RequesterPos = &Position{Dimension: "overworld"}
	in.Standing.TargetPos = &Position{X: 50, Dimension: "overworld"}
	if d := Evaluate(in); d == nil || d.Reason != ReasonRuleDenied {
		t.Fatalf("expected RULE_DENIED, got %v", d)
	}
	in.Standing.TargetPos.X = 10
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected allow under rule, got %v", d)
	}
}

func TestEvaluateRuleErrorFailsOpen(t *testing.T) {
	rule, err := CompileRule("no_such_param > 3")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	in := baseInput()
	in.Rule = rule
	if d := Evaluate(in); d != nil {
		t.Fatalf("expected rule error to fail open, got %v", d)
	}
}
