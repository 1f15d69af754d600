package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when username or password do not match.
	// It never says which of the two was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned when a request requires a session and has none
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when a session exists but may not perform the action
	ErrForbidden = errors.New("access denied")
)
