// Package common defines sentinel errors shared by the repository, service
// and handler layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique identifier (username or email) is already taken.
	ErrConflict = errors.New("user exists")
	// ErrInvalidCredentials is returned for any login failure. The message is
	// deliberately generic.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized means no valid session was presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRequest means a request body failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidSettings means a settings update carried an unknown mode or a
	// non-positive threshold.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrPersistence wraps any failure of the underlying store.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotification wraps any failure to deliver an alert.
	ErrNotification = errors.New("notification failure")
)
