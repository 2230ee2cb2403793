package service

import (
	"context"

	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/repository"
)

type PreferencesStore interface {
	Load(ctx context.Context) (repository.Preferences, error)
	Save(ctx context.Context, prefs repository.Preferences) error
}

type PreferencesService struct {
	repo PreferencesStore
}

func NewPreferencesService(repo PreferencesStore) *PreferencesService {
	return &PreferencesService{repo: repo}
}

func (s *PreferencesService) Get(ctx context.Context) (repository.Preferences, error) {
	return s.repo.Load(ctx)
}

type UpdatePreferencesInput struct {
	Theme             *string
	PomodoroCollapsed *bool
}

// Update applies only the fields that are set.
func (s *PreferencesService) Update(ctx context.Context, input UpdatePreferencesInput) (repository.Preferences, error) {
	prefs, err := s.repo.Load(ctx)
	if err != nil {
		return repository.Preferences{}, err
	}

	if input.Theme != nil {
		if *input.Theme != repository.ThemeLight && *input.Theme != repository.ThemeDark {
			return repository.Preferences{}, apperrors.Validation("theme", "theme must be light or dark")
		}
		prefs.Theme = *input.Theme
	}
	if input.PomodoroCollapsed != nil {
		prefs.PomodoroCollapsed = *input.PomodoroCollapsed
	}

	if err := s.repo.Save(ctx, prefs); err != nil {
		return repository.Preferences{}, err
	}
	return prefs, nil
}

// ToggleTheme flips between light and dark.
func (s *PreferencesService) ToggleTheme(ctx context.Context) (repository.Preferences, error) {
	prefs, err := s.repo.Load(ctx)
	if err != nil {
		return repository.Preferences{}, err
	}
	next := repository.ThemeDark
	if prefs.Theme == repository.ThemeDark {
		next = repository.ThemeLight
	}
	return s.Update(ctx, UpdatePreferencesInput{Theme: &next})
}
