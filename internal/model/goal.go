package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
)

const (
	MaxDelays         = 5
	DelayCooldown     = time.Hour
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Goal is persisted as part of the "goals" blob; the JSON names match what
// existing stores already hold.
type Goal struct {
	ID                    string     `json:"id"`
	Text                  string     `json:"text"`
	EstimatedMinutes      int        `json:"estimatedTime"`
	Importance            int        `json:"importance"`
	CreatedAt             time.Time  `json:"createdAt"`
	Status                GoalStatus `json:"status"`
	DelayCount            int        `json:"delayCount"`
	LastDelayedAt         *time.Time `json:"lastDelayedAt,omitempty"`
	FinalTimerStartedAt   *time.Time `json:"finalTimerStartedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	TotalTimeTakenMinutes *int       `json:"totalTimeTaken,omitempty"`
	PomodoroSessions      *int       `json:"pomodoroSessions,omitempty"`
}

func (g Goal) IsCompleted() bool {
	return g.Status == GoalCompleted
}

// UnmarshalJSON accepts the id as a string or as the numeric timestamp older
// stores wrote.
func (g *Goal) UnmarshalJSON(data []byte) error {
	type plain Goal
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("goal id: %w", err)
		}
		return id, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("goal id: %w", err)
	}
	return n.String(), nil
}

// InFinalRegime reports whether the goal can no longer be postponed.
func (g Goal) InFinalRegime() bool {
	return g.FinalTimerStartedAt != nil
}

// EffectiveStart is the instant completion time is measured from.
func (g Goal) EffectiveStart() time.Time {
	if g.FinalTimerStartedAt != nil {
		return *g.FinalTimerStartedAt
	}
	return g.CreatedAt
}

func (g Goal) Sessions() int {
	if g.PomodoroSessions == nil {
		return 0
	}
	return *g.PomodoroSessions
}

// Clone returns a deep copy so callers never alias store-owned pointers.
func (g Goal) Clone() Goal {
	out := g
	out.LastDelayedAt = cloneTime(g.LastDelayedAt)
	out.FinalTimerStartedAt = cloneTime(g.FinalTimerStartedAt)
	out.CompletedAt = cloneTime(g.CompletedAt)
	out.TotalTimeTakenMinutes = cloneInt(g.TotalTimeTakenMinutes)
	out.PomodoroSessions = cloneInt(g.PomodoroSessions)
	return out
}

type DelayTier string

const (
	TierNone     DelayTier = "none"
	TierOnce     DelayTier = "once"
	TierTwice    DelayTier = "twice"
	TierThrice   DelayTier = "thrice"
	TierCritical DelayTier = "critical"
)

// Tier is the badge bucket for the goal's current delay count.
func (g Goal) Tier() DelayTier {
	return TierFor(g.DelayCount)
}

// TierFor buckets a delay count the way goal cards are badged.
func TierFor(delayCount int) DelayTier {
	switch {
	case delayCount <= 0:
		return TierNone
	case delayCount == 1:
		return TierOnce
	case delayCount == 2:
		return TierTwice
	case delayCount == 3:
		return TierThrice
	default:
		return TierCritical
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
