package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goalgate/backend/internal/model"
)

// GoalRepository round-trips the whole goal set as one ordered blob.
type GoalRepository struct {
	kv KVStore
}

func NewGoalRepository(kv KVStore) *GoalRepository {
	return &GoalRepository{kv: kv}
}

func (r *GoalRepository) Load(ctx context.Context) ([]model.Goal, error) {
	var goals []model.Goal
	if _, err := getJSON(ctx, r.kv, KeyGoals, &goals); err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	return goals, nil
}

func (r *GoalRepository) Save(ctx context.Context, goals []model.Goal) error {
	if goals == nil {
		goals = []model.Goal{}
	}
	if err := setJSON(ctx, r.kv, KeyGoals, goals); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

// LastSaved reports when the goal set was last written; ok is false before
// the first save.
func (r *GoalRepository) LastSaved(ctx context.Context) (time.Time, bool, error) {
	updatedAt, err := r.kv.UpdatedAt(ctx, KeyGoals)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("goals last saved: %w", err)
	}
	return updatedAt, true, nil
}
