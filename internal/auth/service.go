// Package auth implements login, logout and session resolution for the API,
// and the authorization rules handlers apply to resolved sessions.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"medialist/internal/session"
)

// Identity is the verifier's answer for a username/password pair
type Identity struct {
	Matched bool
	IsAdmin bool
}

// CredentialVerifier checks a username/password pair against the identity store.
// Unknown users and wrong passwords both report Matched == false with a nil error.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// SessionStore is the subset of session.Store the service depends on
type SessionStore interface {
	Create(username string, isAdmin bool) (session.Session, error)
	GetAndRefresh(token string) (session.Session, bool)
	Close(token string)
}

// Service defines the authentication service interface
type Service interface {
	Login(ctx context.Context, username, password string) (session.Session, error)
	Resolve(token string) (session.Session, bool)
	Logout(token string)
}

// service implements the Service interface
type service struct {
	verifier CredentialVerifier
	store    SessionStore
	logger   *slog.Logger
}

// NewService creates a new authentication service
func NewService(verifier CredentialVerifier, store SessionStore, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		verifier: verifier,
		store:    store,
		logger:   logger,
	}
}

// Login verifies the credentials and opens a new session.
// A mismatch returns ErrInvalidCredentials; verifier faults are wrapped.
func (s *service) Login(ctx context.Context, username, password string) (session.Session, error) {
	if username == "" || password == "" {
		return session.Session{}, ErrInvalidCredentials
	}

	identity, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to verify credentials: %w", err)
	}
	if !identity.Matched {
		return session.Session{}, ErrInvalidCredentials
	}

	sess, err := s.store.Create(username, identity.IsAdmin)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Debug("Session opened", "username", username, "is_admin", identity.IsAdmin)

	return sess, nil
}

// Resolve returns the live session for token and refreshes its activity time
func (s *service) Resolve(token string) (session.Session, bool) {
	return s.store.GetAndRefresh(token)
}

// Logout closes the session for token. Unknown tokens are ignored.
func (s *service) Logout(token string) {
	s.store.Close(token)
}
