package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// ReadingRepository is the append-only telemetry log.
type ReadingRepository interface {
	Insert(ctx context.Context, r models.Reading) (int64, error)
	// Latest returns common.ErrNotFound when the log is empty.
	Latest(ctx context.Context) (*models.Reading, error)
	Recent(ctx context.Context, limit int) ([]models.Reading, error)
}

// TelemetryService stamps and stores readings and serves them back newest first.
type TelemetryService struct {
	repo ReadingRepository
	log  *zap.Logger
	now  func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewTelemetryService constructs a TelemetryService backed by repo.
func NewTelemetryService(repo ReadingRepository, log *zap.Logger) *TelemetryService {
	return &TelemetryService{repo: repo, log: log, now: time.Now}
}

// Append assigns the persistence timestamp and stores r. A store failure is
// logged and returned wrapped in common.ErrPersistence.
func (s *TelemetryService) Append(ctx context.Context, r models.Reading) (models.Reading, error) {
	r.ID = 0
	r.Timestamp = s.stamp()

	id, err := s.repo.Insert(ctx, r)
	if err != nil {
		s.log.Error("failed to persist reading",
			zap.Float64("magnitude", r.Magnitude),
			zap.Bool("alarm", r.Alarm),
			zap.Error(err),
		)
		return models.Reading{}, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	r.ID = id
	return r, nil
}

// Latest returns the newest reading, or nil when there is none.
func (s *TelemetryService) Latest(ctx context.Context) (*models.Reading, error) {
	r, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// Recent returns up to limit readings, newest first.
func (s *TelemetryService) Recent(ctx context.Context, limit int) ([]models.Reading, error) {
	if limit <= 0 {
		return []models.Reading{}, nil
	}
	return s.repo.Recent(ctx, limit)
}

// stamp returns a strictly increasing UTC timestamp at the database's
// microsecond resolution.
func (s *TelemetryService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Microsecond)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Microsecond)
	}
	s.last = ts
	return ts
}
