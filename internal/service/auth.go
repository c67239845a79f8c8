// Package service provides the business logic for authentication, settings
// and telemetry, delegating persistence to repository interfaces.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// SessionLifetime is the absolute lifetime of a dashboard session.
const SessionLifetime = 24 * time.Hour

// AccountRepository defines the persistence operations for accounts
// required by the authentication service.
type AccountRepository interface {
	// CreateAccount stores a new account. It returns common.ErrConflict when
	// the username or email is already taken.
	CreateAccount(ctx context.Context, acc models.Account) error
	// GetAccountByUsername returns common.ErrNotFound for unknown users.
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
}

// SessionRepository stores session tokens with an absolute expiry.
type SessionRepository interface {
	Create(ctx context.Context, token, accountID string, ttl time.Duration) error
	// Get returns common.ErrNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// AuthService implements registration, login, logout and session checks.
type AuthService struct {
	// repo performs the account data-layer operations.
	repo AccountRepository
	// sessions holds issued session tokens.
	sessions SessionRepository
	// cost is the bcrypt work factor.
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService constructs an AuthService using the provided repositories.
func NewAuthService(repo AccountRepository, sessions SessionRepository) *AuthService {
	return &AuthService{repo: repo, sessions: sessions, cost: bcrypt.DefaultCost}
}

// Register creates an account with a salted bcrypt hash of password.
// Empty fields yield common.ErrInvalidRequest; a taken username or email
// yields common.ErrConflict.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, common.ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.ErrInvalidRequest
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// Login verifies the credentials and issues a new session token.
// Any mismatch, including an unknown username, yields
// common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	acc, err := s.repo.GetAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// keep the response time close to the known-user path
			_ = bcrypt.CompareHashAndPassword(s.fakeHash(), []byte(password))
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return "", common.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, token, acc.ID, SessionLifetime); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates token immediately.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Check reports whether token belongs to a live session and, if so, which
// account it is bound to.
func (s *AuthService) Check(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	accountID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return accountID, true, nil
}

func (s *AuthService) fakeHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
