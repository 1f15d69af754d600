package auth

import (
	"net/http"
	"strings"

	"medialist/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionContextKey  = "session"
	usernameContextKey = "username"
)

// Resolver turns a bearer token into a live session
type Resolver interface {
	Resolve(token string) (session.Session, bool)
}

// TokenFromHeader extracts the bearer token from an Authorization header value.
// A value without the Bearer prefix is taken as the raw token.
func TokenFromHeader(header string) string {
	const prefix = "bearer"

	header = strings.TrimSpace(header)
	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		rest := header[len(prefix):]
		if rest == "" {
			return ""
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return header
}

// SessionMiddleware resolves the request's bearer token, if any, and stores
// the session in the gin context. It never rejects a request; handlers
// decide with the policy functions.
func SessionMiddleware(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromHeader(c.GetHeader("Authorization"))
		if token != "" {
			if sess, ok := resolver.Resolve(token); ok {
				c.Set(sessionContextKey, sess)
				c.Set(usernameContextKey, sess.Username)
			}
		}
		c.Next()
	}
}

// RequireSession aborts with 401 unless SessionMiddleware resolved a session
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := RequireAuthenticated(SessionFrom(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session resolved for this request, or nil
func SessionFrom(c *gin.Context) *session.Session {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	sess, ok := value.(session.Session)
	if !ok {
		return nil
	}
	return &sess
}

// AbortWithError writes the failure envelope for an authorization error
func AbortWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	reason := "Internal server error."
	switch status {
	case http.StatusUnauthorized:
		reason = "Authentication required."
	case http.StatusForbidden:
		reason = "Access denied."
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "reason": reason})
}
