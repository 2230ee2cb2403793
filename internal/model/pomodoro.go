package model

import "time"

type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

type TimerStatus string

const (
	StatusIdle    TimerStatus = "idle"
	StatusRunning TimerStatus = "running"
	StatusPaused  TimerStatus = "paused"
)

const (
	DefaultFocusDurationSeconds      = 25 * 60
	DefaultShortBreakDurationSeconds = 5 * 60
	DefaultLongBreakDurationSeconds  = 15 * 60

	LongBreakEvery = 4
)

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeShortBreak || m == ModeLongBreak
}

type Durations struct {
	FocusSeconds      int `json:"focusDurationSeconds"`
	ShortBreakSeconds int `json:"shortBreakDurationSeconds"`
	LongBreakSeconds  int `json:"longBreakDurationSeconds"`
}

func DefaultDurations() Durations {
	return Durations{
		FocusSeconds:      DefaultFocusDurationSeconds,
		ShortBreakSeconds: DefaultShortBreakDurationSeconds,
		LongBreakSeconds:  DefaultLongBreakDurationSeconds,
	}
}

func (d Durations) For(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return d.ShortBreakSeconds
	case ModeLongBreak:
		return d.LongBreakSeconds
	default:
		return d.FocusSeconds
	}
}

func (d Durations) Valid() bool {
	return d.FocusSeconds > 0 && d.ShortBreakSeconds > 0 && d.LongBreakSeconds > 0
}

// PomodoroState is a point-in-time snapshot of the engine. It is never persisted.
type PomodoroState struct {
	Mode              Mode        `json:"mode"`
	Status            TimerStatus `json:"status"`
	Running           bool        `json:"running"`
	RemainingSeconds  int         `json:"remainingSeconds"`
	TotalSeconds      int         `json:"totalSeconds"`
	SessionsCompleted int         `json:"sessionsCompleted"`
	BoundGoalID       *string     `json:"boundGoalId,omitempty"`
	Durations         Durations   `json:"durations"`
}

// PomodoroDailyStats is persisted under the "pomodoroStats" key.
type PomodoroDailyStats struct {
	TodaySessions     int    `json:"todaySessions"`
	TotalFocusMinutes int    `json:"totalFocusMinutes"`
	LastSessionDate   string `json:"lastSessionDate,omitempty"`
}

const dayLayout = "2006-01-02"

// DayKey is the calendar-day marker for t in its own location.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}
