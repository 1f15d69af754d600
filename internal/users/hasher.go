package users

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher creates and checks stored password hashes
type Hasher interface {
	Hash(username, password string) (string, error)
	Verify(hash, username, password string) bool
}

// BcryptHasher hashes new passwords with bcrypt. It still accepts the legacy
// hex SHA-256(username+password) format for accounts created before bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is 0
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a bcrypt hash of password
func (h *BcryptHasher) Hash(username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash for username
func (h *BcryptHasher) Verify(hash, username, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	if username == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(legacyHash(username, password)), []byte(strings.ToLower(hash))) == 1
}

func legacyHash(username, password string) string {
	sum := sha256.Sum256([]byte(username + password))
	return hex.EncodeToString(sum[:])
}
