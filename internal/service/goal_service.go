package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"goalgate/backend/internal/clock"
	"goalgate/backend/internal/delaygate"
	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/events"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
)

type GoalStore interface {
	Load(ctx context.Context) ([]model.Goal, error)
	Save(ctx context.Context, goals []model.Goal) error
}

// saveTimeReporter is implemented by stores that know when they last wrote.
type saveTimeReporter interface {
	LastSaved(ctx context.Context) (time.Time, bool, error)
}

type GoalView string

const (
	ViewAll       GoalView = "all"
	ViewDelaying  GoalView = "delaying"
	ViewCompleted GoalView = "completed"
)

type CreateGoalInput struct {
	Text             string
	EstimatedMinutes int
	Importance       int
}

type DelayOutcome struct {
	Goal         model.Goal
	Decision     delaygate.Decision
	FinalWarning bool
}

type FinalTimerView struct {
	GoalID    string        `json:"goalId"`
	StartedAt time.Time     `json:"startedAt"`
	Elapsed   time.Duration `json:"-"`
	Seconds   int           `json:"elapsedSeconds"`
	Display   string        `json:"display"`
}

// GoalService owns the goal set. The in-memory slice is authoritative and
// every mutation is written through to the store as a whole.
type GoalService struct {
	mu    sync.Mutex
	repo  GoalStore
	clock clock.Clock
	sink  events.Sink
	newID func() string

	goals          []model.Goal
	deleteHandlers []func(goalID string)
}

func NewGoalService(ctx context.Context, repo GoalStore, clk clock.Clock, sink events.Sink) (*GoalService, error) {
	goals, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &GoalService{
		repo:  repo,
		clock: clk,
		sink:  sink,
		newID: uuid.NewString,
		goals: goals,
	}, nil
}

// OnDelete registers fn to run after a goal has been removed.
func (s *GoalService) OnDelete(fn func(goalID string)) {
	s.mu.Lock()
	s.deleteHandlers = append(s.deleteHandlers, fn)
	s.mu.Unlock()
}

func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*model.Goal, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.Validation("text", "goal text is required")
	}
	if input.EstimatedMinutes <= 0 {
		return nil, apperrors.Validation("estimatedMinutes", "estimated time must be a positive number of minutes")
	}
	importance := input.Importance
	if importance == 0 {
		importance = model.DefaultImportance
	}
	if importance < model.MinImportance || importance > model.MaxImportance {
		return nil, apperrors.Validation("importance", "importance must be between 1 and 5")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goal := model.Goal{
		ID:               s.newID(),
		Text:             text,
		EstimatedMinutes: input.EstimatedMinutes,
		Importance:       importance,
		CreatedAt:        s.clock.Now(),
		Status:           model.GoalActive,
	}
	s.goals = append(s.goals, goal)

	observability.LoggerFromContext(ctx).Info("goal created",
		"goal_id", goal.ID,
		"estimated_minutes", goal.EstimatedMinutes,
		"importance", goal.Importance,
	)

	out := goal.Clone()
	return &out, s.persistLocked(ctx)
}

// Complete is effective once. Completing an already completed goal returns it unchanged.
func (s *GoalService) Complete(ctx context.Context, goalID string) (*model.Goal, error) {
	s.mu.Lock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, s.notFound(ctx, "complete", goalID)
	}

	goal := &s.goals[idx]
	if goal.IsCompleted() {
		out := goal.Clone()
		s.mu.Unlock()
		return &out, nil
	}

	now := s.clock.Now()
	taken := int(math.Round(now.Sub(goal.EffectiveStart()).Minutes()))
	goal.Status = model.GoalCompleted
	goal.CompletedAt = &now
	goal.TotalTimeTakenMinutes = &taken

	out := goal.Clone()
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("goal completed",
		"goal_id", goalID,
		"total_minutes", taken,
		"delay_count", out.DelayCount,
	)
	s.sink.GoalCompleted(out)
	return &out, err
}

// Delay asks the gate first. A denial comes back in the outcome with no mutation.
func (s *GoalService) Delay(ctx context.Context, goalID string) (*DelayOutcome, error) {
	s.mu.Lock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, s.notFound(ctx, "delay", goalID)
	}

	goal := &s.goals[idx]
	if goal.IsCompleted() {
		s.mu.Unlock()
		return nil, apperrors.Validation("status", "a completed goal cannot be postponed")
	}

	now := s.clock.Now()
	decision := delaygate.Evaluate(*goal, now)
	if !decision.Allowed {
		out := &DelayOutcome{Goal: goal.Clone(), Decision: decision}
		s.mu.Unlock()
		observability.LoggerFromContext(ctx).Debug("delay denied",
			"goal_id", goalID,
			"reason", decision.Reason,
			"retry_after_minutes", decision.RetryAfterMinutes(),
		)
		return out, nil
	}

	goal.DelayCount++
	goal.LastDelayedAt = &now
	finalWarning := goal.DelayCount == model.MaxDelays
	if finalWarning {
		goal.FinalTimerStartedAt = &now
	}

	out := &DelayOutcome{Goal: goal.Clone(), Decision: decision, FinalWarning: finalWarning}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("goal delayed",
		"goal_id", goalID,
		"delay_count", out.Goal.DelayCount,
		"final_timer", finalWarning,
	)
	if finalWarning {
		s.sink.FinalWarning(out.Goal)
	}
	s.sink.GoalDelayed(out.Goal)
	return out, err
}

// Delete removes the goal. Confirmation is the caller's job.
func (s *GoalService) Delete(ctx context.Context, goalID string) error {
	s.mu.Lock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		s.mu.Unlock()
		return s.notFound(ctx, "delete", goalID)
	}

	s.goals = append(s.goals[:idx], s.goals[idx+1:]...)
	err := s.persistLocked(ctx)
	handlers := append([]func(string){}, s.deleteHandlers...)
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("goal deleted", "goal_id", goalID)
	for _, fn := range handlers {
		fn(goalID)
	}
	return err
}

func (s *GoalService) Get(goalID string) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		return nil, fmt.Errorf("get goal %s: %w", goalID, apperrors.ErrGoalNotFound)
	}
	out := s.goals[idx].Clone()
	return &out, nil
}

// List returns a copy of the goals for the given view. Unknown views fall back to all.
func (s *GoalService) List(view GoalView) []model.Goal {
	s.mu.Lock()
	snapshot := make([]model.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		snapshot = append(snapshot, g.Clone())
	}
	s.mu.Unlock()

	switch view {
	case ViewDelaying:
		out := filterGoals(snapshot, func(g model.Goal) bool { return !g.IsCompleted() && g.DelayCount > 0 })
		sort.SliceStable(out, func(i, j int) bool { return out[i].DelayCount > out[j].DelayCount })
		return out
	case ViewCompleted:
		out := filterGoals(snapshot, model.Goal.IsCompleted)
		sort.SliceStable(out, func(i, j int) bool { return completedAt(out[i]).After(completedAt(out[j])) })
		return out
	default:
		return filterGoals(snapshot, func(g model.Goal) bool { return !g.IsCompleted() })
	}
}

// Snapshot returns every goal in insertion order.
func (s *GoalService) Snapshot() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g.Clone())
	}
	return out
}

// LastSaved returns when the goal set last reached the store, or nil when the
// store cannot tell or has never been written.
func (s *GoalService) LastSaved(ctx context.Context) (*time.Time, error) {
	reporter, ok := s.repo.(saveTimeReporter)
	if !ok {
		return nil, nil
	}
	savedAt, found, err := reporter.LastSaved(ctx)
	if err != nil || !found {
		return nil, err
	}
	return &savedAt, nil
}

// FinalTimer reports how long the goal has sat in the no-more-delay regime.
func (s *GoalService) FinalTimer(goalID string) (*FinalTimerView, error) {
	goal, err := s.Get(goalID)
	if err != nil {
		return nil, err
	}
	if goal.FinalTimerStartedAt == nil {
		return nil, apperrors.Validation("finalTimer", "final timer has not started for this goal")
	}

	end := s.clock.Now()
	if goal.CompletedAt != nil {
		end = *goal.CompletedAt
	}
	elapsed := end.Sub(*goal.FinalTimerStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	return &FinalTimerView{
		GoalID:    goal.ID,
		StartedAt: *goal.FinalTimerStartedAt,
		Elapsed:   elapsed,
		Seconds:   int(elapsed / time.Second),
		Display:   FormatElapsed(elapsed),
	}, nil
}

// FormatElapsed renders d as HH:MM:SS; hours are not capped at 24.
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// EnsureSessionCounter readies an active goal for focus-session credit.
func (s *GoalService) EnsureSessionCounter(ctx context.Context, goalID string) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		return nil, s.notFound(ctx, "bind", goalID)
	}

	goal := &s.goals[idx]
	if goal.IsCompleted() {
		return nil, apperrors.Validation("status", "a completed goal cannot be bound to the timer")
	}
	if goal.PomodoroSessions != nil {
		out := goal.Clone()
		return &out, nil
	}

	zero := 0
	goal.PomodoroSessions = &zero
	out := goal.Clone()
	return &out, s.persistLocked(ctx)
}

// RecordFocusSession credits one completed focus interval to the goal.
func (s *GoalService) RecordFocusSession(ctx context.Context, goalID string) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(goalID)
	if idx < 0 {
		return nil, s.notFound(ctx, "record focus session", goalID)
	}

	goal := &s.goals[idx]
	sessions := goal.Sessions() + 1
	goal.PomodoroSessions = &sessions

	observability.LoggerFromContext(ctx).Info("focus session credited",
		"goal_id", goalID,
		"pomodoro_sessions", sessions,
	)

	out := goal.Clone()
	return &out, s.persistLocked(ctx)
}

func (s *GoalService) indexLocked(goalID string) int {
	for i := range s.goals {
		if s.goals[i].ID == goalID {
			return i
		}
	}
	return -1
}

func (s *GoalService) notFound(ctx context.Context, op, goalID string) error {
	observability.LoggerFromContext(ctx).Debug("goal not found", "op", op, "goal_id", goalID)
	return fmt.Errorf("%s goal %s: %w", op, goalID, apperrors.ErrGoalNotFound)
}

func (s *GoalService) persistLocked(ctx context.Context) error {
	snapshot := make([]model.Goal, len(s.goals))
	copy(snapshot, s.goals)

	if err := s.repo.Save(ctx, snapshot); err != nil {
		observability.LoggerFromContext(ctx).Error("persist goals", "error", err)
		return fmt.Errorf("%w: %v", apperrors.ErrPersist, err)
	}
	return nil
}

func completedAt(g model.Goal) time.Time {
	if g.CompletedAt == nil {
		return time.Time{}
	}
	return *g.CompletedAt
}

func filterGoals(goals []model.Goal, keep func(model.Goal) bool) []model.Goal {
	out := make([]model.Goal, 0, len(goals))
	for _, g := range goals {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}
