package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goalgate/backend/internal/clock"
	"goalgate/backend/internal/events"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
	"goalgate/backend/internal/repository"
	"goalgate/backend/internal/service"
)

var t0 = time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC)

func init() {
	observability.SetOutput(io.Discard)
}

type harness struct {
	ctx      context.Context
	clock    *clock.Manual
	kv       *repository.MemoryKV
	recorder *events.Recorder
	goals    *service.GoalService
	engine   *service.PomodoroEngine
	binder   *service.Binder
	stats    *service.StatsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithKV(t, repository.NewMemoryKV())
}

func newHarnessWithKV(t *testing.T, kv *repository.MemoryKV) *harness {
	t.Helper()

	ctx := context.Background()
	clk := clock.NewManual(t0)
	recorder := &events.Recorder{}

	goals, err := service.NewGoalService(ctx, repository.NewGoalRepository(kv), clk, recorder)
	require.NoError(t, err)

	engine := service.NewPomodoroEngine(
		repository.NewStatsRepository(kv),
		clk,
		clk,
		recorder,
		service.PomodoroOptions{Durations: model.DefaultDurations(), Location: time.UTC},
	)
	require.NoError(t, engine.Init(ctx))

	return &harness{
		ctx:      ctx,
		clock:    clk,
		kv:       kv,
		recorder: recorder,
		goals:    goals,
		engine:   engine,
		binder:   service.NewBinder(goals, engine),
		stats:    service.NewStatsService(goals, engine, clk, time.UTC),
	}
}

func (h *harness) createGoal(t *testing.T, text string, minutes int) model.Goal {
	t.Helper()
	goal, err := h.goals.Create(h.ctx, service.CreateGoalInput{Text: text, EstimatedMinutes: minutes, Importance: 3})
	require.NoError(t, err)
	return *goal
}

// runInterval ticks until the current interval completes.
func (h *harness) runInterval(t *testing.T) {
	t.Helper()
	state := h.engine.State()
	require.True(t, state.Running, "timer must be running")
	h.clock.Advance(time.Duration(state.RemainingSeconds) * time.Second)
}

type failingGoalStore struct {
	goals []model.Goal
}

func (s *failingGoalStore) Load(context.Context) ([]model.Goal, error) {
	return s.goals, nil
}

func (s *failingGoalStore) Save(context.Context, []model.Goal) error {
	return errors.New("disk full")
}
