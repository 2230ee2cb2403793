package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"goalgate/backend/internal/clock"
	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/events"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
)

const tickInterval = time.Second

type StatsStore interface {
	Load(ctx context.Context) (model.PomodoroDailyStats, error)
	Save(ctx context.Context, stats model.PomodoroDailyStats) error
}

type PomodoroOptions struct {
	Durations model.Durations
	// Location decides where calendar days start for the daily counters.
	Location *time.Location
}

// PomodoroEngine is the focus/break countdown. Exactly one tick schedule is
// live at a time; every transition that stops the timer cancels it first.
type PomodoroEngine struct {
	mu        sync.Mutex
	clock     clock.Clock
	scheduler clock.Scheduler
	stats     StatsStore
	sink      events.Sink
	location  *time.Location

	durations         model.Durations
	mode              model.Mode
	status            model.TimerStatus
	remainingSeconds  int
	totalSeconds      int
	sessionsCompleted int
	boundGoalID       *string
	daily             model.PomodoroDailyStats

	cancelTick func()
	generation int
	onFocus    []func(ctx context.Context, goalID string)
}

func NewPomodoroEngine(stats StatsStore, clk clock.Clock, scheduler clock.Scheduler, sink events.Sink, opts PomodoroOptions) *PomodoroEngine {
	durations := opts.Durations
	if !durations.Valid() {
		durations = model.DefaultDurations()
	}
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	if sink == nil {
		sink = events.Nop{}
	}

	return &PomodoroEngine{
		clock:            clk,
		scheduler:        scheduler,
		stats:            stats,
		sink:             sink,
		location:         location,
		durations:        durations,
		mode:             model.ModeFocus,
		status:           model.StatusIdle,
		remainingSeconds: durations.FocusSeconds,
		totalSeconds:     durations.FocusSeconds,
	}
}

// Init loads the persisted daily counters and zeroes today's count when the
// stored day is not today.
func (e *PomodoroEngine) Init(ctx context.Context) error {
	stats, err := e.stats.Load(ctx)
	if err != nil {
		return fmt.Errorf("init pomodoro: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.daily = stats
	if e.rollDayLocked() {
		observability.LoggerFromContext(ctx).Info("pomodoro daily stats reset", "last_session_date", stats.LastSessionDate)
		if err := e.stats.Save(ctx, e.daily); err != nil {
			return fmt.Errorf("init pomodoro: %w", err)
		}
	}
	return nil
}

// OnFocusComplete registers fn to receive the bound goal id whenever a focus
// interval finishes with a goal bound.
func (e *PomodoroEngine) OnFocusComplete(fn func(ctx context.Context, goalID string)) {
	e.mu.Lock()
	e.onFocus = append(e.onFocus, fn)
	e.mu.Unlock()
}

func (e *PomodoroEngine) State() model.PomodoroState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *PomodoroEngine) DailyStats() model.PomodoroDailyStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.daily
	if out.LastSessionDate != model.DayKey(e.clock.Now().In(e.location)) {
		out.TodaySessions = 0
	}
	return out
}

func (e *PomodoroEngine) Start() model.PomodoroState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == model.StatusRunning {
		return e.stateLocked()
	}

	e.haltLocked()
	e.status = model.StatusRunning
	e.generation++
	generation := e.generation
	e.cancelTick = e.scheduler.Every(tickInterval, func() { e.tick(generation) })

	observability.Logger().Debug("pomodoro started", "mode", e.mode, "remaining_seconds", e.remainingSeconds)
	return e.stateLocked()
}

func (e *PomodoroEngine) Pause() model.PomodoroState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != model.StatusRunning {
		return e.stateLocked()
	}

	e.haltLocked()
	e.status = model.StatusPaused
	observability.Logger().Debug("pomodoro paused", "mode", e.mode, "remaining_seconds", e.remainingSeconds)
	return e.stateLocked()
}

func (e *PomodoroEngine) Reset() model.PomodoroState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()
	e.status = model.StatusIdle
	e.totalSeconds = e.durations.For(e.mode)
	e.remainingSeconds = e.totalSeconds
	return e.stateLocked()
}

// SwitchMode always leaves the timer stopped at the full duration of mode.
func (e *PomodoroEngine) SwitchMode(mode model.Mode) (model.PomodoroState, error) {
	if !mode.Valid() {
		return model.PomodoroState{}, apperrors.Validation("mode", "mode must be one of focus, short_break, long_break")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.switchModeLocked(mode)
	return e.stateLocked(), nil
}

// UpdateDurations takes effect immediately unless the timer is running, in
// which case the current interval keeps its length.
func (e *PomodoroEngine) UpdateDurations(durations model.Durations) (model.PomodoroState, error) {
	if !durations.Valid() {
		return model.PomodoroState{}, apperrors.Validation("durations", "all durations must be positive seconds")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.durations = durations
	if e.status != model.StatusRunning {
		e.totalSeconds = durations.For(e.mode)
		e.remainingSeconds = e.totalSeconds
	}
	return e.stateLocked(), nil
}

func (e *PomodoroEngine) BindGoal(goalID string) {
	e.mu.Lock()
	id := goalID
	e.boundGoalID = &id
	e.mu.Unlock()
}

// UnbindGoal clears any binding and returns the goal that was bound.
func (e *PomodoroEngine) UnbindGoal() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.boundGoalID == nil {
		return "", false
	}
	prev := *e.boundGoalID
	e.boundGoalID = nil
	return prev, true
}

// UnbindGoalIf clears the binding only when goalID is the bound goal.
func (e *PomodoroEngine) UnbindGoalIf(goalID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.boundGoalID == nil || *e.boundGoalID != goalID {
		return false
	}
	e.boundGoalID = nil
	return true
}

// Close stops the countdown without changing any other state.
func (e *PomodoroEngine) Close() {
	e.mu.Lock()
	e.haltLocked()
	if e.status == model.StatusRunning {
		e.status = model.StatusPaused
	}
	e.mu.Unlock()
}

func (e *PomodoroEngine) tick(generation int) {
	e.mu.Lock()

	if generation != e.generation || e.status != model.StatusRunning {
		e.mu.Unlock()
		return
	}

	if e.remainingSeconds > 0 {
		e.remainingSeconds--
	}
	if e.remainingSeconds > 0 {
		e.mu.Unlock()
		return
	}

	after := e.completeIntervalLocked()
	e.mu.Unlock()

	after()
}

// completeIntervalLocked applies the transition for an interval that reached
// zero and returns the follow-up work to run once the lock is released.
func (e *PomodoroEngine) completeIntervalLocked() func() {
	ctx := context.Background()
	log := observability.Logger()
	e.haltLocked()

	if e.mode != model.ModeFocus {
		e.switchModeLocked(model.ModeFocus)
		state := e.stateLocked()
		log.Info("break complete")
		return func() { e.sink.BreakComplete(state) }
	}

	e.sessionsCompleted++
	e.rollDayLocked()
	e.daily.TodaySessions++
	e.daily.TotalFocusMinutes += e.totalSeconds / 60
	e.daily.LastSessionDate = model.DayKey(e.clock.Now().In(e.location))
	if err := e.stats.Save(ctx, e.daily); err != nil {
		log.Error("persist pomodoro stats", "error", err)
	}

	var boundGoalID string
	if e.boundGoalID != nil {
		boundGoalID = *e.boundGoalID
	}
	handlers := append([]func(context.Context, string){}, e.onFocus...)

	next := model.ModeShortBreak
	if e.sessionsCompleted%model.LongBreakEvery == 0 {
		next = model.ModeLongBreak
	}
	e.switchModeLocked(next)
	state := e.stateLocked()

	log.Info("focus complete",
		"sessions_completed", e.sessionsCompleted,
		"today_sessions", e.daily.TodaySessions,
		"bound_goal_id", boundGoalID,
		"next_mode", next,
	)

	return func() {
		if boundGoalID != "" {
			for _, fn := range handlers {
				fn(ctx, boundGoalID)
			}
		}
		e.sink.FocusComplete(state)
	}
}

func (e *PomodoroEngine) switchModeLocked(mode model.Mode) {
	e.haltLocked()
	e.mode = mode
	e.status = model.StatusIdle
	e.totalSeconds = e.durations.For(mode)
	e.remainingSeconds = e.totalSeconds
}

// haltLocked cancels the live schedule. Bumping the generation makes any tick
// already in flight a no-op.
func (e *PomodoroEngine) haltLocked() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	e.generation++
}

func (e *PomodoroEngine) rollDayLocked() bool {
	today := model.DayKey(e.clock.Now().In(e.location))
	if e.daily.LastSessionDate == today || e.daily.TodaySessions == 0 {
		return false
	}
	e.daily.TodaySessions = 0
	return true
}

func (e *PomodoroEngine) stateLocked() model.PomodoroState {
	state := model.PomodoroState{
		Mode:              e.mode,
		Status:            e.status,
		Running:           e.status == model.StatusRunning,
		RemainingSeconds:  e.remainingSeconds,
		TotalSeconds:      e.totalSeconds,
		SessionsCompleted: e.sessionsCompleted,
		Durations:         e.durations,
	}
	if e.boundGoalID != nil {
		id := *e.boundGoalID
		state.BoundGoalID = &id
	}
	return state
}
