package repository

import (
	"context"
	"fmt"

	"goalgate/backend/internal/model"
)

type StatsRepository struct {
	kv KVStore
}

func NewStatsRepository(kv KVStore) *StatsRepository {
	return &StatsRepository{kv: kv}
}

func (r *StatsRepository) Load(ctx context.Context) (model.PomodoroDailyStats, error) {
	var stats model.PomodoroDailyStats
	if _, err := getJSON(ctx, r.kv, KeyPomodoroStats, &stats); err != nil {
		return model.PomodoroDailyStats{}, fmt.Errorf("load pomodoro stats: %w", err)
	}
	return stats, nil
}

func (r *StatsRepository) Save(ctx context.Context, stats model.PomodoroDailyStats) error {
	if err := setJSON(ctx, r.kv, KeyPomodoroStats, stats); err != nil {
		return fmt.Errorf("save pomodoro stats: %w", err)
	}
	return nil
}
