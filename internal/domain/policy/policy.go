package policy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Reason enumerates why a peek request creation was denied.
type Reason string

const (
	ReasonSelfTarget         Reason = "SELF_TARGET"
	ReasonBlacklisted        Reason = "BLACKLISTED"
	ReasonNotWhitelisted     Reason = "NOT_WHITELISTED"
	ReasonDifferentDimension Reason = "DIFFERENT_DIMENSION"
	ReasonTooFar             Reason = "TOO_FAR"
	ReasonParticipantBusy    Reason = "PARTICIPANT_BUSY"
	ReasonSessionLimit       Reason = "SESSION_LIMIT"
	ReasonCooldown           Reason = "COOLDOWN"
	ReasonRuleDenied         Reason = "RULE_DENIED"
)

// Denial is a policy rejection surfaced to the requester.
type Denial struct {
	Reason Reason
	Detail string
}

func (d *Denial) Error() string {
	if d.Detail == "" {
		return fmt.Sprintf("peek request denied: %s", d.Reason)
	}
	return fmt.Sprintf("peek request denied: %s (%s)", d.Reason, d.Detail)
}

func deny(reason Reason, detail string) *Denial {
	return &Denial{Reason: reason, Detail: detail}
}

// Position is a participant's location within the shared environment.
type Position struct {
	X, Y, Z   float64
	Dimension string
}

// DistanceTo returns the euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Standing is the read-only snapshot of per-participant standing data the
// evaluator consumes. It is derived by the data provider at evaluation time
// and never retained.
type Standing struct {
	TargetAutoAccept           bool
	TargetRequiresWhitelist    bool
	RequesterWhitelisted       bool
	TargetBlacklistedRequester bool

	BypassDistance bool
	BypassBusy     bool
	BypassCooldown bool

	RequesterPos *Position
	TargetPos    *Position

	CooldownUntil time.Time
}

// Input carries everything Evaluate needs: the standing snapshot, live
// session occupancy, and the configured limits.
type Input struct {
	Requester uuid.UUID
	Target    uuid.UUID
	Standing  Standing

	RequesterBusy  bool
	TargetBusy     bool
	ActiveSessions int

	// Limits. Zero means unlimited.
	MaxSessions int
	MaxDistance float64

	Rule *Rule
	Now  time.Time
}

// Evaluate decides whether a new peek request may be created. A nil return
// means allow. The check order is fixed so reason precedence is
// deterministic: the earliest failing check wins.
//
//  1. self target
//  2. target has blacklisted the requester
//  3. target requires whitelist and requester is absent
//  4. dimension mismatch (unless distance bypass)
//  5. distance above limit (unless distance bypass)
//  6. either side busy, then global session cap (unless busy bypass)
//  7. requester under cooldown (unless cooldown bypass)
//  8. operator rule expression
func Evaluate(in Input) *Denial {
	st := in.Standing

	if in.Requester == in.Target {
		return deny(ReasonSelfTarget, "cannot peek yourself")
	}
	if st.TargetBlacklistedRequester {
		return deny(ReasonBlacklisted, "")
	}
	if st.TargetRequiresWhitelist && !st.RequesterWhitelisted {
		return deny(ReasonNotWhitelisted, "")
	}
	if !st.BypassDistance && st.RequesterPos != nil && st.TargetPos != nil {
		if st.RequesterPos.Dimension != st.TargetPos.Dimension {
			return deny(ReasonDifferentDimension, "")
		}
		if in.MaxDistance > 0 {
			if d := st.RequesterPos.DistanceTo(*st.TargetPos); d > in.MaxDistance {
				return deny(ReasonTooFar, fmt.Sprintf("distance %.1f exceeds limit %.1f", d, in.MaxDistance))
			}
		}
	}
	if !st.BypassBusy {
		if in.RequesterBusy {
			return deny(ReasonParticipantBusy, "requester already in a session")
		}
		if in.TargetBusy {
			return deny(ReasonParticipantBusy, "target already in a session")
		}
		if in.MaxSessions > 0 && in.ActiveSessions >= in.MaxSessions {
			return deny(ReasonSessionLimit, "")
		}
	}
	if !st.BypassCooldown && in.Now.Before(st.CooldownUntil) {
		return deny(ReasonCooldown, fmt.Sprintf("retry in %s", st.CooldownUntil.Sub(in.Now).Round(time.Second)))
	}
	if in.Rule != nil {
		// Runtime expression errors fail open: a broken operator rule must
		// not take the whole feature down.
		if denied, err := in.Rule.Denies(in.ruleParams()); err == nil && denied {
			return deny(ReasonRuleDenied, "")
		}
	}
	return nil
}

func (in Input) ruleParams() map[string]interface{} {
	st := in.Standing
	params := map[string]interface{}{
		"requester":             in.Requester.String(),
		"target":                in.Target.String(),
		"requester_busy":        in.RequesterBusy,
		"target_busy":           in.TargetBusy,
		"active_sessions":       in.ActiveSessions,
		"target_auto_accept":    st.TargetAutoAccept,
		"requester_whitelisted": st.RequesterWhitelisted,
		"same_dimension":        true,
		"distance":              -1.0,
	}
	if st.RequesterPos != nil && st.TargetPos != nil {
		params["same_dimension"] = st.RequesterPos.Dimension == st.TargetPos.Dimension
		params["distance"] = st.RequesterPos.DistanceTo(*st.TargetPos)
		params["requester_dimension"] = st.RequesterPos.Dimension
		params["target_dimension"] = st.TargetPos.Dimension
	}
	return params
}
