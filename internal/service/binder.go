package service

import (
	"context"
	"errors"

	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
)

// Binder attributes completed focus intervals to at most one goal.
type Binder struct {
	goals  *GoalService
	engine *PomodoroEngine
}

func NewBinder(goals *GoalService, engine *PomodoroEngine) *Binder {
	b := &Binder{goals: goals, engine: engine}
	engine.OnFocusComplete(b.creditFocus)
	goals.OnDelete(b.goalDeleted)
	return b
}

// BindAndStart replaces any existing binding, resets the timer to a fresh
// focus interval and starts it.
func (b *Binder) BindAndStart(ctx context.Context, goalID string) (model.PomodoroState, error) {
	if _, err := b.goals.EnsureSessionCounter(ctx, goalID); err != nil && !errors.Is(err, apperrors.ErrPersist) {
		return b.engine.State(), err
	}

	b.engine.BindGoal(goalID)
	if _, err := b.engine.SwitchMode(model.ModeFocus); err != nil {
		return b.engine.State(), err
	}
	state := b.engine.Start()

	observability.LoggerFromContext(ctx).Info("goal bound to timer", "goal_id", goalID)
	return state, nil
}

// Unbind clears the binding and pauses without resetting elapsed time.
func (b *Binder) Unbind(ctx context.Context) model.PomodoroState {
	if prev, ok := b.engine.UnbindGoal(); ok {
		observability.LoggerFromContext(ctx).Info("goal unbound from timer", "goal_id", prev)
	}
	return b.engine.Pause()
}

func (b *Binder) goalDeleted(goalID string) {
	if b.engine.UnbindGoalIf(goalID) {
		observability.Logger().Info("bound goal deleted, binding cleared", "goal_id", goalID)
	}
}

func (b *Binder) creditFocus(ctx context.Context, goalID string) {
	_, err := b.goals.RecordFocusSession(ctx, goalID)
	switch {
	case err == nil, errors.Is(err, apperrors.ErrPersist):
	case errors.Is(err, apperrors.ErrGoalNotFound):
		b.engine.UnbindGoalIf(goalID)
	default:
		observability.Logger().Error("credit focus session", "goal_id", goalID, "error", err)
	}
}
