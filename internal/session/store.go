// Package session provides the in-memory session table shared by all handlers.
// Sessions expire after a period of inactivity and are evicted lazily on lookup.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is how long a session may stay idle before it expires
const DefaultTimeout = 30 * time.Minute

// Option configures a Store
type Option func(*Store)

// WithTimeout sets the inactivity timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithClock replaces the time source used for activity stamps and expiry
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTokenGenerator replaces the generator used for new sessions
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.tokens = gen
		}
	}
}

// Store is the concurrency-safe authority for all live sessions.
// A single mutex guards the whole table.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	timeout time.Duration
	now     func() time.Time
	tokens  TokenGenerator
}

// NewStore creates an empty session store
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		timeout:  DefaultTimeout,
		now:      time.Now,
		tokens:   NewTokenGenerator(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Timeout returns the configured inactivity timeout
func (s *Store) Timeout() time.Duration {
	return s.timeout
}

// Create mints a session for username and inserts it into the table.
// A token collision overwrites the previous entry.
func (s *Store) Create(username string, isAdmin bool) (Session, error) {
	token, err := s.tokens.Generate()
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		Token:        token,
		Username:     username,
		IsAdmin:      isAdmin,
		LastActivity: s.now(),
	}
	s.sessions[token] = sess

	return *sess, nil
}

// GetAndRefresh evicts expired sessions, then looks up token and stamps its
// activity time. Unknown, closed and expired tokens all report false.
func (s *Store) GetAndRefresh(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	sess.LastActivity = now

	return *sess, true
}

// Close removes the session for token. Unknown tokens are ignored.
func (s *Store) Close(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// CloseUser removes every session held by username except keepToken, which
// may be empty. It returns how many sessions were closed.
func (s *Store) CloseUser(username, keepToken string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for token, sess := range s.sessions {
		if sess.Username == username && token != keepToken {
			delete(s.sessions, token)
			closed++
		}
	}
	return closed
}

// Sweep removes every expired session and returns how many were evicted
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sweepLocked(s.now())
}

// Len returns the number of sessions currently held, expired or not
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// RunJanitor sweeps the table every interval until ctx is cancelled.
// It bounds memory when no lookups arrive; correctness does not depend on it.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// sweepLocked must be called with s.mu held
func (s *Store) sweepLocked(now time.Time) int {
	evicted := 0
	for token, sess := range s.sessions {
		if sess.Expired(now, s.timeout) {
			delete(s.sessions, token)
			evicted++
		}
	}
	return evicted
}
