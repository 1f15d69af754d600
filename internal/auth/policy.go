package auth

import (
	"errors"
	"net/http"

	"medialist/internal/session"
)

// Authorization rules shared by every resource handler. A nil session means
// the request carried no live token.

// RequireAuthenticated fails with ErrUnauthenticated when sess is absent
func RequireAuthenticated(sess *session.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	return nil
}

// IsAdmin reports whether sess was minted with the admin flag
func IsAdmin(sess *session.Session) bool {
	return sess != nil && sess.IsAdmin
}

// IsOwnerOrAdmin reports whether sess belongs to owner or holds admin privilege
func IsOwnerOrAdmin(sess *session.Session, owner string) bool {
	return sess != nil && (sess.Username == owner || IsAdmin(sess))
}

// RequireAdmin returns ErrUnauthenticated without a session and ErrForbidden
// for a non-admin one
func RequireAdmin(sess *session.Session) error {
	if err := RequireAuthenticated(sess); err != nil {
		return err
	}
	if !IsAdmin(sess) {
		return ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin returns ErrUnauthenticated without a session and
// ErrForbidden when sess is neither owner nor admin
func RequireOwnerOrAdmin(sess *session.Session, owner string) error {
	if err := RequireAuthenticated(sess); err != nil {
		return err
	}
	if !IsOwnerOrAdmin(sess, owner) {
		return ErrForbidden
	}
	return nil
}

// StatusFor maps an authorization error to its HTTP status.
// Errors outside the taxonomy map to 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
