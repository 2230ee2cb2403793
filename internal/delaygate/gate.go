// Package delaygate decides whether a goal may be postponed right now.
package delaygate

import (
	"fmt"
	"time"

	"goalgate/backend/internal/model"
)

type Reason string

const (
	ReasonNone               Reason = ""
	ReasonEstimateNotElapsed Reason = "estimate_not_elapsed"
	ReasonCooldownActive     Reason = "cooldown_active"
	ReasonMaxDelaysReached   Reason = "max_delays_reached"
)

// Decision is the gate's verdict. A denial is a normal result, not an error.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
}

// Evaluate applies the gating rules in order: estimated time, hourly cooldown,
// then the postponement cap. Completed goals are not the gate's concern.
func Evaluate(goal model.Goal, now time.Time) Decision {
	estimate := time.Duration(goal.EstimatedMinutes) * time.Minute
	if sinceCreated := now.Sub(goal.CreatedAt); sinceCreated < estimate {
		return deny(ReasonEstimateNotElapsed, estimate-sinceCreated)
	}

	if goal.LastDelayedAt != nil {
		if sinceDelay := now.Sub(*goal.LastDelayedAt); sinceDelay < model.DelayCooldown {
			return deny(ReasonCooldownActive, model.DelayCooldown-sinceDelay)
		}
	}

	if goal.DelayCount >= model.MaxDelays {
		return Decision{Reason: ReasonMaxDelaysReached}
	}

	return Decision{Allowed: true}
}

func deny(reason Reason, remaining time.Duration) Decision {
	return Decision{Reason: reason, RetryAfter: ceilMinute(remaining)}
}

func ceilMinute(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	minutes := (d + time.Minute - 1) / time.Minute
	return minutes * time.Minute
}

// Terminal reports a denial that no amount of waiting will lift.
func (d Decision) Terminal() bool {
	return d.Reason == ReasonMaxDelaysReached
}

func (d Decision) RetryAfterMinutes() int {
	return int(d.RetryAfter / time.Minute)
}

func (d Decision) Message() string {
	switch d.Reason {
	case ReasonEstimateNotElapsed:
		return fmt.Sprintf("estimated time not yet elapsed, you can postpone in %d min", d.RetryAfterMinutes())
	case ReasonCooldownActive:
		return fmt.Sprintf("cooldown active, postponing is allowed once per hour, retry in %d min", d.RetryAfterMinutes())
	case ReasonMaxDelaysReached:
		return "maximum postponements reached, this one has to get done"
	default:
		return ""
	}
}
