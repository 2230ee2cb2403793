package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalgate/backend/internal/clock"
	"goalgate/backend/internal/db"
	"goalgate/backend/internal/events"
	"goalgate/backend/internal/handler"
	"goalgate/backend/internal/model"
	"goalgate/backend/internal/observability"
	"goalgate/backend/internal/repository"
	"goalgate/backend/internal/router"
	"goalgate/backend/internal/service"
)

type goalEnvelope struct {
	Goal         model.Goal `json:"goal"`
	FinalWarning bool       `json:"finalWarning"`
}

type goalsEnvelope struct {
	Goals []model.Goal `json:"goals"`
}

type badgeEnvelope struct {
	Goals []struct {
		ID          string `json:"id"`
		DelayTier   string `json:"delayTier"`
		FinalRegime bool   `json:"finalRegime"`
	} `json:"goals"`
	LastSavedAt *time.Time `json:"lastSavedAt"`
}

type stateEnvelope struct {
	State model.PomodoroState      `json:"state"`
	Stats model.PomodoroDailyStats `json:"stats"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	handler  http.Handler
	clock    *clock.Manual
	recorder *events.Recorder
}

func init() {
	gin.SetMode(gin.TestMode)
	observability.SetOutput(io.Discard)
}

func TestGoalLifecycle(t *testing.T) {
	srv := setupTestServer(t)

	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/goals", map[string]any{
		"text": "write report", "estimatedMinutes": 30, "importance": 4,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created goalEnvelope
	require.NoError(t, json.Unmarshal(raw, &created))
	goalID := created.Goal.ID
	require.NotEmpty(t, goalID)
	assert.Equal(t, 4, created.Goal.Importance)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
	require.Equal(t, http.StatusConflict, status)
	denied := decodeError(t, raw)
	assert.Equal(t, "delay_denied", denied.Error.Code)
	assert.Equal(t, "estimate_not_elapsed", denied.Error.Details["reason"])
	assert.EqualValues(t, 30, denied.Error.Details["retryAfterMinutes"])

	srv.clock.Advance(31 * time.Minute)
	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var delayed goalEnvelope
	require.NoError(t, json.Unmarshal(raw, &delayed))
	assert.Equal(t, 1, delayed.Goal.DelayCount)
	assert.False(t, delayed.FinalWarning)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "cooldown_active", decodeError(t, raw).Error.Details["reason"])

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals?view=delaying", nil)
	require.Equal(t, http.StatusOK, status)
	var delaying goalsEnvelope
	require.NoError(t, json.Unmarshal(raw, &delaying))
	require.Len(t, delaying.Goals, 1)
	var badges badgeEnvelope
	require.NoError(t, json.Unmarshal(raw, &badges))
	require.Len(t, badges.Goals, 1)
	assert.Equal(t, "once", badges.Goals[0].DelayTier)
	assert.False(t, badges.Goals[0].FinalRegime)
	require.NotNil(t, badges.LastSavedAt)
	assert.WithinDuration(t, time.Now(), *badges.LastSavedAt, time.Minute)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/complete", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var completed goalEnvelope
	require.NoError(t, json.Unmarshal(raw, &completed))
	assert.Equal(t, model.GoalCompleted, completed.Goal.Status)
	require.NotNil(t, completed.Goal.TotalTimeTakenMinutes)
	assert.Equal(t, 31, *completed.Goal.TotalTimeTakenMinutes)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals?view=completed", nil)
	require.Equal(t, http.StatusOK, status)
	var done goalsEnvelope
	require.NoError(t, json.Unmarshal(raw, &done))
	require.Len(t, done.Goals, 1)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		Stats service.Summary `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 1, stats.Stats.Completed)
	assert.Equal(t, 100, stats.Stats.CompletionRate)
	assert.Equal(t, 1, stats.Stats.CurrentStreak)

	assert.Equal(t, 1, srv.recorder.Count(events.KindGoalDelayed))
	assert.Equal(t, 1, srv.recorder.Count(events.KindGoalCompleted))

	status, _ = requestJSON(t, srv.handler, http.MethodDelete, "/api/goals/"+goalID, nil)
	require.Equal(t, http.StatusOK, status)
	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals/"+goalID, nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "goal_not_found", decodeError(t, raw).Error.Code)
}

func TestListOmitsSaveTimeBeforeFirstWrite(t *testing.T) {
	srv := setupTestServer(t)

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/goals", nil)
	require.Equal(t, http.StatusOK, status)
	var body badgeEnvelope
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Empty(t, body.Goals)
	assert.Nil(t, body.LastSavedAt)
}

func TestCreateGoalValidation(t *testing.T) {
	srv := setupTestServer(t)

	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/goals", map[string]any{
		"text": "   ", "estimatedMinutes": 10,
	})
	require.Equal(t, http.StatusBadRequest, status)
	body := decodeError(t, raw)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "text", body.Error.Details["field"])

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals", map[string]any{
		"text": "x", "estimatedMinutes": 10, "importance": 9,
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "importance", decodeError(t, raw).Error.Details["field"])

	req := httptest.NewRequest(http.MethodPost, "/api/goals", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec.Body.Bytes()).Error.Code)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals?view=someday", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_view", decodeError(t, raw).Error.Code)
}

func TestMissingGoalReturnsNotFound(t *testing.T) {
	srv := setupTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/goals/nope/complete"},
		{http.MethodPost, "/api/goals/nope/delay"},
		{http.MethodDelete, "/api/goals/nope"},
		{http.MethodGet, "/api/goals/nope/final-timer"},
	} {
		status, raw := requestJSON(t, srv.handler, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, status, tc.path)
		assert.Equal(t, "goal_not_found", decodeError(t, raw).Error.Code, tc.path)
	}
}

func TestFinalTimerEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	goalID := createGoal(t, srv, "tax return", 1)

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/goals/"+goalID+"/final-timer", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", decodeError(t, raw).Error.Code)

	srv.clock.Advance(2 * time.Minute)
	for i := 0; i < model.MaxDelays; i++ {
		status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
		require.Equal(t, http.StatusOK, status, string(raw))
		srv.clock.Advance(model.DelayCooldown)
	}
	assert.Equal(t, 1, srv.recorder.Count(events.KindFinalWarning))

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals/"+goalID, nil)
	require.Equal(t, http.StatusOK, status)
	var single struct {
		Goal struct {
			DelayTier   string `json:"delayTier"`
			FinalRegime bool   `json:"finalRegime"`
		} `json:"goal"`
	}
	require.NoError(t, json.Unmarshal(raw, &single))
	assert.Equal(t, "critical", single.Goal.DelayTier)
	assert.True(t, single.Goal.FinalRegime)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
	require.Equal(t, http.StatusConflict, status)
	denied := decodeError(t, raw)
	assert.Equal(t, "max_delays_reached", denied.Error.Details["reason"])
	assert.NotContains(t, denied.Error.Details, "retryAfterMinutes")

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals/"+goalID+"/final-timer", nil)
	require.Equal(t, http.StatusOK, status)
	var timer struct {
		FinalTimer service.FinalTimerView `json:"finalTimer"`
	}
	require.NoError(t, json.Unmarshal(raw, &timer))
	assert.Equal(t, 3600, timer.FinalTimer.Seconds)
	assert.Equal(t, "01:00:00", timer.FinalTimer.Display)
}

func TestPomodoroBindCreditsGoal(t *testing.T) {
	srv := setupTestServer(t)
	goalID := createGoal(t, srv, "deep work", 60)

	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/bind", map[string]string{"goalId": goalID})
	require.Equal(t, http.StatusOK, status, string(raw))
	var bound stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &bound))
	assert.True(t, bound.State.Running)
	require.NotNil(t, bound.State.BoundGoalID)
	assert.Equal(t, goalID, *bound.State.BoundGoalID)

	srv.clock.Advance(time.Duration(model.DefaultFocusDurationSeconds) * time.Second)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/pomodoro/state", nil)
	require.Equal(t, http.StatusOK, status)
	var after stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &after))
	assert.Equal(t, model.ModeShortBreak, after.State.Mode)
	assert.Equal(t, 1, after.Stats.TodaySessions)
	assert.Equal(t, 25, after.Stats.TotalFocusMinutes)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/goals/"+goalID, nil)
	require.Equal(t, http.StatusOK, status)
	var goal goalEnvelope
	require.NoError(t, json.Unmarshal(raw, &goal))
	assert.Equal(t, 1, goal.Goal.Sessions())
	assert.Equal(t, 1, srv.recorder.Count(events.KindFocusComplete))

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/unbind", nil)
	require.Equal(t, http.StatusOK, status)
	var unbound stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &unbound))
	assert.Nil(t, unbound.State.BoundGoalID)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/bind", map[string]string{"goalId": "missing"})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "goal_not_found", decodeError(t, raw).Error.Code)
}

func TestEventsAreDeliveredOnce(t *testing.T) {
	srv := setupTestServer(t)
	goalID := createGoal(t, srv, "inbox", 1)

	srv.clock.Advance(2 * time.Minute)
	status, _ := requestJSON(t, srv.handler, http.MethodPost, "/api/goals/"+goalID+"/delay", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/start", nil)
	require.Equal(t, http.StatusOK, status)
	srv.clock.Advance(time.Duration(model.DefaultFocusDurationSeconds) * time.Second)

	type eventsEnvelope struct {
		Events []events.Event `json:"events"`
	}

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, status)
	var first eventsEnvelope
	require.NoError(t, json.Unmarshal(raw, &first))
	require.Len(t, first.Events, 2)
	assert.Equal(t, events.KindGoalDelayed, first.Events[0].Kind)
	assert.Equal(t, goalID, first.Events[0].GoalID)
	assert.Equal(t, events.KindFocusComplete, first.Events[1].Kind)
	assert.Equal(t, model.ModeShortBreak, first.Events[1].Mode)

	status, raw = requestJSON(t, srv.handler, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"events":[]}`, string(raw))
}

func TestPomodoroControls(t *testing.T) {
	srv := setupTestServer(t)

	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/start", nil)
	require.Equal(t, http.StatusOK, status)
	srv.clock.Advance(10 * time.Second)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/pause", nil)
	require.Equal(t, http.StatusOK, status)
	var paused stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &paused))
	assert.Equal(t, model.StatusPaused, paused.State.Status)
	assert.Equal(t, 1490, paused.State.RemainingSeconds)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/reset", nil)
	require.Equal(t, http.StatusOK, status)
	var reset stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &reset))
	assert.Equal(t, 1500, reset.State.RemainingSeconds)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/mode", map[string]string{"mode": "long_break"})
	require.Equal(t, http.StatusOK, status)
	var long stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &long))
	assert.Equal(t, 900, long.State.RemainingSeconds)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/pomodoro/mode", map[string]string{"mode": "nap"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "mode", decodeError(t, raw).Error.Details["field"])

	status, raw = requestJSON(t, srv.handler, http.MethodPut, "/api/pomodoro/settings", map[string]int{
		"focusDurationSeconds": 600, "shortBreakDurationSeconds": 120, "longBreakDurationSeconds": 0,
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", decodeError(t, raw).Error.Code)

	status, raw = requestJSON(t, srv.handler, http.MethodPut, "/api/pomodoro/settings", map[string]int{
		"focusDurationSeconds": 600, "shortBreakDurationSeconds": 120, "longBreakDurationSeconds": 480,
	})
	require.Equal(t, http.StatusOK, status)
	var updated stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, 480, updated.State.RemainingSeconds)
	assert.Equal(t, 600, updated.State.Durations.FocusSeconds)
}

func TestPreferences(t *testing.T) {
	srv := setupTestServer(t)

	type prefsEnvelope struct {
		Preferences repository.Preferences `json:"preferences"`
	}

	status, raw := requestJSON(t, srv.handler, http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, status)
	var prefs prefsEnvelope
	require.NoError(t, json.Unmarshal(raw, &prefs))
	assert.Equal(t, repository.ThemeLight, prefs.Preferences.Theme)

	status, raw = requestJSON(t, srv.handler, http.MethodPut, "/api/preferences", map[string]any{"pomodoroCollapsed": true})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &prefs))
	assert.True(t, prefs.Preferences.PomodoroCollapsed)
	assert.Equal(t, repository.ThemeLight, prefs.Preferences.Theme)

	status, raw = requestJSON(t, srv.handler, http.MethodPost, "/api/preferences/theme/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &prefs))
	assert.Equal(t, repository.ThemeDark, prefs.Preferences.Theme)
	assert.True(t, prefs.Preferences.PomodoroCollapsed)

	status, raw = requestJSON(t, srv.handler, http.MethodPut, "/api/preferences", map[string]any{"theme": "sepia"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "theme", decodeError(t, raw).Error.Details["field"])
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/goals/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	srv.handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRequestIDHeader(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	database, err := db.Open(db.DriverPure, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	ctx := context.Background()
	kv := repository.NewSQLiteKV(database)
	clk := clock.NewManual(time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC))
	recorder := &events.Recorder{}

	goalService, err := service.NewGoalService(ctx, repository.NewGoalRepository(kv), clk, recorder)
	require.NoError(t, err)
	engine := service.NewPomodoroEngine(repository.NewStatsRepository(kv), clk, clk, recorder, service.PomodoroOptions{
		Durations: model.DefaultDurations(),
		Location:  time.UTC,
	})
	require.NoError(t, engine.Init(ctx))
	t.Cleanup(engine.Close)

	binder := service.NewBinder(goalService, engine)
	statsService := service.NewStatsService(goalService, engine, clk, time.UTC)
	preferencesService := service.NewPreferencesService(repository.NewPreferencesRepository(kv))

	engineHandler := router.New(router.Handlers{
		Goals:       handler.NewGoalHandler(goalService),
		Pomodoro:    handler.NewPomodoroHandler(engine, binder),
		Stats:       handler.NewStatsHandler(statsService),
		Preferences: handler.NewPreferencesHandler(preferencesService),
		Events:      handler.NewEventsHandler(recorder),
	}, []string{"http://localhost:5173"})

	return &testServer{handler: engineHandler, clock: clk, recorder: recorder}
}

func createGoal(t *testing.T, srv *testServer, text string, minutes int) string {
	t.Helper()
	status, raw := requestJSON(t, srv.handler, http.MethodPost, "/api/goals", map[string]any{
		"text": text, "estimatedMinutes": minutes,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created goalEnvelope
	require.NoError(t, json.Unmarshal(raw, &created))
	return created.Goal.ID
}

func decodeError(t *testing.T, raw []byte) apiErrorEnvelope {
	t.Helper()
	var body apiErrorEnvelope
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
