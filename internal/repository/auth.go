// Package repository provides persistence implementations for accounts,
// sessions, settings and telemetry readings.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation pq.ErrorCode = "23505"

// PostgresAuthRepository implements account persistence using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// CreateAccount inserts a new account. Uniqueness of username and email is
// enforced by the database, so two concurrent registrations with the same
// identifier cannot both succeed; the loser gets common.ErrConflict.
func (s *PostgresAuthRepository) CreateAccount(ctx context.Context, acc models.Account) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO accounts (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		acc.ID, acc.Username, acc.Email, acc.PasswordHash, acc.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return common.ErrConflict
		}
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// GetAccountByUsername looks an account up by its login name.
// It returns common.ErrNotFound when no such account exists.
func (s *PostgresAuthRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	acc := &models.Account{}
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM accounts WHERE username = $1`,
		username,
	).Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("GetAccountByUsername: %w", err)
	}
	return acc, nil
}
