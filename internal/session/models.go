package session

import "time"

// Session represents one authenticated login
type Session struct {
	Token        string    `json:"-"`
	Username     string    `json:"username"`
	IsAdmin      bool      `json:"is_admin"`
	LastActivity time.Time `json:"last_activity"`
}

// Expired reports whether the session has been idle for longer than timeout
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastActivity) > timeout
}
