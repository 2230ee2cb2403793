// Package events carries the core's outward signals to animation, audio and
// notification collaborators. The core only emits; it never renders.
package events

import (
	"sync"

	"goalgate/backend/internal/model"
)

type Sink interface {
	GoalCompleted(goal model.Goal)
	GoalDelayed(goal model.Goal)
	FinalWarning(goal model.Goal)
	FocusComplete(state model.PomodoroState)
	BreakComplete(state model.PomodoroState)
}

type Nop struct{}

func (Nop) GoalCompleted(model.Goal)          {}
func (Nop) GoalDelayed(model.Goal)            {}
func (Nop) FinalWarning(model.Goal)           {}
func (Nop) FocusComplete(model.PomodoroState) {}
func (Nop) BreakComplete(model.PomodoroState) {}

// Multi fans every event out to each sink in order.
type Multi []Sink

func (m Multi) GoalCompleted(goal model.Goal) {
	for _, s := range m {
		s.GoalCompleted(goal)
	}
}

func (m Multi) GoalDelayed(goal model.Goal) {
	for _, s := range m {
		s.GoalDelayed(goal)
	}
}

func (m Multi) FinalWarning(goal model.Goal) {
	for _, s := range m {
		s.FinalWarning(goal)
	}
}

func (m Multi) FocusComplete(state model.PomodoroState) {
	for _, s := range m {
		s.FocusComplete(state)
	}
}

func (m Multi) BreakComplete(state model.PomodoroState) {
	for _, s := range m {
		s.BreakComplete(state)
	}
}

type Kind string

const (
	KindGoalCompleted Kind = "goal_completed"
	KindGoalDelayed   Kind = "goal_delayed"
	KindFinalWarning  Kind = "final_warning"
	KindFocusComplete Kind = "focus_complete"
	KindBreakComplete Kind = "break_complete"
)

type Event struct {
	Kind   Kind       `json:"kind"`
	GoalID string     `json:"goalId,omitempty"`
	Mode   model.Mode `json:"mode,omitempty"`
}

// Recorder buffers events until they are drained, which GET /api/events does
// for the UI's animation and audio layer. With Limit set, the oldest events
// are dropped once the buffer is full.
type Recorder struct {
	Limit int

	mu     sync.Mutex
	events []Event
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	if r.Limit > 0 && len(r.events) > r.Limit {
		r.events = append([]Event(nil), r.events[len(r.events)-r.Limit:]...)
	}
	r.mu.Unlock()
}

func (r *Recorder) GoalCompleted(goal model.Goal) {
	r.add(Event{Kind: KindGoalCompleted, GoalID: goal.ID})
}

func (r *Recorder) GoalDelayed(goal model.Goal) {
	r.add(Event{Kind: KindGoalDelayed, GoalID: goal.ID})
}

func (r *Recorder) FinalWarning(goal model.Goal) {
	r.add(Event{Kind: KindFinalWarning, GoalID: goal.ID})
}

func (r *Recorder) FocusComplete(state model.PomodoroState) {
	r.add(Event{Kind: KindFocusComplete, Mode: state.Mode})
}

func (r *Recorder) BreakComplete(state model.PomodoroState) {
	r.add(Event{Kind: KindBreakComplete, Mode: state.Mode})
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns and forgets everything recorded so far. The result is never nil.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
