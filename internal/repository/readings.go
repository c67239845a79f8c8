package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

const readingColumns = `id, accel_x, accel_y, accel_z, magnitude, gps_latitude, gps_longitude, alarm, mode, created_at`

// PostgresReadingRepository is the append-only telemetry log.
type PostgresReadingRepository struct {
	DB *sql.DB
}

// NewPostgresReadingRepository creates a PostgresReadingRepository using db.
func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{DB: db}
}

// Insert appends r and returns the id assigned by the database.
func (s *PostgresReadingRepository) Insert(ctx context.Context, r models.Reading) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO readings (accel_x, accel_y, accel_z, magnitude, gps_latitude, gps_longitude, alarm, mode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		r.AccelX, r.AccelY, r.AccelZ, r.Magnitude,
		r.GPSLatitude, r.GPSLongitude,
		r.Alarm, string(r.Mode), r.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Insert reading: %w", err)
	}
	return id, nil
}

// Latest returns the most recent reading or common.ErrNotFound when the log is empty.
func (s *PostgresReadingRepository) Latest(ctx context.Context) (*models.Reading, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY created_at DESC, id DESC LIMIT 1`)

	r, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("Latest reading: %w", err)
	}
	return r, nil
}

// Recent returns at most limit readings, newest first.
func (s *PostgresReadingRepository) Recent(ctx context.Context, limit int) ([]models.Reading, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+readingColumns+` FROM readings ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("Recent readings: %w", err)
	}
	defer rows.Close()

	readings := make([]models.Reading, 0, limit)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		readings = append(readings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent readings: %w", err)
	}
	return readings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReading(sc scanner) (*models.Reading, error) {
	var (
		r        models.Reading
		lat, lon sql.NullFloat64
		mode     string
	)
	if err := sc.Scan(&r.ID, &r.AccelX, &r.AccelY, &r.AccelZ, &r.Magnitude, &lat, &lon, &r.Alarm, &mode, &r.Timestamp); err != nil {
		return nil, err
	}
	if lat.Valid {
		r.GPSLatitude = &lat.Float64
	}
	if lon.Valid {
		r.GPSLongitude = &lon.Float64
	}
	r.Mode = models.Mode(mode)
	return &r, nil
}
