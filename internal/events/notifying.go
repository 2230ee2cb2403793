package events

import (
	"fmt"

	"goalgate/backend/internal/model"
	"goalgate/backend/internal/notify"
	"goalgate/backend/internal/observability"
)

// Notifying turns timer completions and the final warning into user
// notifications. Completions and plain delays are only logged.
type Notifying struct {
	Notifier notify.Notifier
}

func (n Notifying) GoalCompleted(goal model.Goal) {
	observability.WithFields("goal_id", goal.ID).Info("goal completed", "delay_count", goal.DelayCount)
}

func (n Notifying) GoalDelayed(goal model.Goal) {
	observability.WithFields("goal_id", goal.ID).Info("goal delayed", "delay_count", goal.DelayCount)
}

func (n Notifying) FinalWarning(goal model.Goal) {
	n.Notifier.Notify(
		"Last chance",
		fmt.Sprintf("%q was postponed %d times. The final timer is running and it cannot be postponed again.", goal.Text, goal.DelayCount),
	)
}

func (n Notifying) FocusComplete(state model.PomodoroState) {
	next := "a short break"
	if state.Mode == model.ModeLongBreak {
		next = "a long break"
	}
	n.Notifier.Notify("Focus complete", fmt.Sprintf("Session %d done. Time for %s.", state.SessionsCompleted, next))
}

func (n Notifying) BreakComplete(model.PomodoroState) {
	n.Notifier.Notify("Break over", "Ready for the next focus session?")
}
