package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// SettingsRepository persists the singleton settings row.
type SettingsRepository interface {
	// GetOrCreate returns the stored settings, creating def if none exist.
	GetOrCreate(ctx context.Context, def models.Settings) (models.Settings, error)
	// Save overwrites the stored settings.
	Save(ctx context.Context, st models.Settings) error
}

// SettingsService owns the authoritative in-memory copy of the settings.
// Reads return a full value copy under a read lock, so a caller never sees
// the mode of one update combined with the threshold of another.
type SettingsService struct {
	repo  SettingsRepository
	group singleflight.Group
	now   func() time.Time

	mu  sync.RWMutex
	cur *models.Settings
}

// NewSettingsService constructs a SettingsService backed by repo.
func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo, now: time.Now}
}

// Get returns the current settings, loading or creating them on first use.
// Concurrent first calls share a single load.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	s.mu.RLock()
	if s.cur != nil {
		st := *s.cur
		s.mu.RUnlock()
		return st, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("settings", func() (any, error) {
		// shared by every waiter, so it must not die with the first caller
		st, err := s.repo.GetOrCreate(context.WithoutCancel(ctx), s.defaults())
		if err != nil {
			return nil, fmt.Errorf("%w: load settings: %w", common.ErrPersistence, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// an Update may have landed while we were loading
		if s.cur == nil {
			s.cur = &st
		}
		return *s.cur, nil
	})
	if err != nil {
		return models.Settings{}, err
	}
	return v.(models.Settings), nil
}

// Update applies the fields present in patch, stamps the update time,
// persists the result and returns it. Writers are serialised.
func (s *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	if patch.Mode != nil && !patch.Mode.Valid() {
		return models.Settings{}, fmt.Errorf("%w: unknown mode %q", common.ErrInvalidSettings, *patch.Mode)
	}
	if patch.Threshold != nil && !(*patch.Threshold > 0 && !math.IsInf(*patch.Threshold, 1)) {
		return models.Settings{}, fmt.Errorf("%w: threshold must be positive", common.ErrInvalidSettings)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.cur
	if base == nil {
		st, err := s.repo.GetOrCreate(ctx, s.defaults())
		if err != nil {
			return models.Settings{}, fmt.Errorf("%w: load settings: %w", common.ErrPersistence, err)
		}
		base = &st
	}

	next := *base
	if patch.Mode != nil {
		next.Mode = *patch.Mode
	}
	if patch.Threshold != nil {
		next.Threshold = *patch.Threshold
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, next); err != nil {
		return models.Settings{}, fmt.Errorf("%w: save settings: %w", common.ErrPersistence, err)
	}
	s.cur = &next
	return next, nil
}

func (s *SettingsService) defaults() models.Settings {
	st := models.DefaultSettings()
	st.UpdatedAt = s.now().UTC()
	return st
}
