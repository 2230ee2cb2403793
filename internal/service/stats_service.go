package service

import (
	"math"
	"sort"
	"time"

	"goalgate/backend/internal/clock"
	"goalgate/backend/internal/model"
)

type Summary struct {
	Total             int     `json:"total"`
	Active            int     `json:"active"`
	Completed         int     `json:"completed"`
	CompletionRate    int     `json:"completionRate"`
	CurrentStreak     int     `json:"currentStreak"`
	AverageDelays     float64 `json:"averageDelays"`
	TodaySessions     int     `json:"todaySessions"`
	TotalFocusMinutes int     `json:"totalFocusMinutes"`
}

type DailyStatsSource interface {
	DailyStats() model.PomodoroDailyStats
}

// StatsService recomputes every figure on demand; it holds no state.
type StatsService struct {
	goals    *GoalService
	pomodoro DailyStatsSource
	clock    clock.Clock
	location *time.Location
}

func NewStatsService(goals *GoalService, pomodoro DailyStatsSource, clk clock.Clock, location *time.Location) *StatsService {
	if location == nil {
		location = time.Local
	}
	return &StatsService{goals: goals, pomodoro: pomodoro, clock: clk, location: location}
}

func (s *StatsService) Summary() Summary {
	summary := Summarize(s.goals.Snapshot(), s.clock.Now(), s.location)
	if s.pomodoro != nil {
		daily := s.pomodoro.DailyStats()
		summary.TodaySessions = daily.TodaySessions
		summary.TotalFocusMinutes = daily.TotalFocusMinutes
	}
	return summary
}

// Summarize derives the goal figures from a snapshot.
func Summarize(goals []model.Goal, now time.Time, location *time.Location) Summary {
	summary := Summary{Total: len(goals)}

	delaySum := 0
	for _, g := range goals {
		if g.IsCompleted() {
			summary.Completed++
			delaySum += g.DelayCount
		} else {
			summary.Active++
		}
	}

	if summary.Total > 0 {
		summary.CompletionRate = int(math.Round(float64(summary.Completed) / float64(summary.Total) * 100))
	}
	if summary.Completed > 0 {
		summary.AverageDelays = math.Round(float64(delaySum)/float64(summary.Completed)*10) / 10
	}
	summary.CurrentStreak = Streak(goals, now, location)
	return summary
}

// Streak counts consecutive calendar days, ending today, with at least one
// completion. A day with no completion ends the run; an empty today yields 0.
func Streak(goals []model.Goal, now time.Time, location *time.Location) int {
	completions := make([]time.Time, 0, len(goals))
	for _, g := range goals {
		if g.IsCompleted() && g.CompletedAt != nil {
			completions = append(completions, *g.CompletedAt)
		}
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].After(completions[j]) })

	today := calendarDay(now, location)
	streak := 0
	for _, completedAt := range completions {
		daysAgo := int(today.Sub(calendarDay(completedAt, location)) / (24 * time.Hour))
		if daysAgo == streak {
			streak++
		} else if daysAgo > streak {
			break
		}
	}
	return streak
}

// calendarDay maps t to midnight UTC of its local date so day arithmetic
// ignores DST shifts.
func calendarDay(t time.Time, location *time.Location) time.Time {
	y, m, d := t.In(location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
