package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/BikeGuard/internal/models"
)

// PostgresSettingsRepository stores the singleton settings row (id = 1).
type PostgresSettingsRepository struct {
	DB *sql.DB
}

// NewPostgresSettingsRepository creates a PostgresSettingsRepository using db.
func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{DB: db}
}

// GetOrCreate returns the stored settings, inserting def first if the row
// does not exist yet. The insert is a no-op when another caller won the race,
// so at most one row is ever created.
func (s *PostgresSettingsRepository) GetOrCreate(ctx context.Context, def models.Settings) (models.Settings, error) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (id, mode, threshold, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, string(def.Mode), def.Threshold, def.UpdatedAt)
	if err != nil {
		return models.Settings{}, fmt.Errorf("GetOrCreate insert: %w", err)
	}

	var (
		st   models.Settings
		mode string
	)
	err = s.DB.QueryRowContext(ctx,
		`SELECT mode, threshold, updated_at FROM settings WHERE id = 1`,
	).Scan(&mode, &st.Threshold, &st.UpdatedAt)
	if err != nil {
		return models.Settings{}, fmt.Errorf("GetOrCreate select: %w", err)
	}
	st.Mode = models.Mode(mode)
	return st, nil
}

// Save overwrites the singleton row with st.
func (s *PostgresSettingsRepository) Save(ctx context.Context, st models.Settings) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO settings (id, mode, threshold, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET mode = EXCLUDED.mode, threshold = EXCLUDED.threshold, updated_at = EXCLUDED.updated_at
	`, string(st.Mode), st.Threshold, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Save settings: %w", err)
	}
	return nil
}
