package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// KVStore holds JSON blobs by key. Get and UpdatedAt return ErrNotFound for
// absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

const (
	KeyGoals             = "goals"
	KeyPomodoroStats     = "pomodoroStats"
	KeyTheme             = "theme"
	KeyPomodoroCollapsed = "pomodoroCollapsed"
)

// getJSON decodes key into dst and reports whether the key was present.
func getJSON(ctx context.Context, kv KVStore, key string, dst interface{}) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func setJSON(ctx context.Context, kv KVStore, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
