package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Preferences struct {
	Theme             string `json:"theme"`
	PomodoroCollapsed bool   `json:"pomodoroCollapsed"`
}

// PreferencesRepository stores UI preferences as two independent keys.
type PreferencesRepository struct {
	kv KVStore
}

func NewPreferencesRepository(kv KVStore) *PreferencesRepository {
	return &PreferencesRepository{kv: kv}
}

func (r *PreferencesRepository) Load(ctx context.Context) (Preferences, error) {
	prefs := Preferences{Theme: ThemeLight}

	theme, err := r.loadTheme(ctx)
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	if theme == ThemeLight || theme == ThemeDark {
		prefs.Theme = theme
	}

	if _, err := getJSON(ctx, r.kv, KeyPomodoroCollapsed, &prefs.PomodoroCollapsed); err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

func (r *PreferencesRepository) Save(ctx context.Context, prefs Preferences) error {
	if err := setJSON(ctx, r.kv, KeyTheme, prefs.Theme); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if err := setJSON(ctx, r.kv, KeyPomodoroCollapsed, prefs.PomodoroCollapsed); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// loadTheme reads the theme key as a JSON string, falling back to the bare
// word older stores wrote. Anything else reads as no preference.
func (r *PreferencesRepository) loadTheme(ctx context.Context) (string, error) {
	raw, err := r.kv.Get(ctx, KeyTheme)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", KeyTheme, err)
	}

	var theme string
	if err := json.Unmarshal(raw, &theme); err != nil {
		return strings.TrimSpace(string(raw)), nil
	}
	return theme, nil
}
