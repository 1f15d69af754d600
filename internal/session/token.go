package session

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// TokenLength is the number of characters in a generated token
	TokenLength = 24

	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// largest multiple of len(tokenAlphabet) that fits in a byte
	maxUnbiased = 256 - (256 % len(tokenAlphabet))
)

// TokenGenerator produces opaque session tokens
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator draws tokens uniformly from a 62-symbol alphabet
type RandomTokenGenerator struct {
	randReader io.Reader
}

// NewTokenGenerator returns a generator reading from crypto/rand
func NewTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{randReader: rand.Reader}
}

// NewTokenGeneratorFromReader returns a generator reading from r.
// Mostly useful for tests.
func NewTokenGeneratorFromReader(r io.Reader) *RandomTokenGenerator {
	return &RandomTokenGenerator{randReader: r}
}

// Generate returns a fresh TokenLength-character token
func (g *RandomTokenGenerator) Generate() (string, error) {
	token := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength)

	for len(token) < TokenLength {
		if _, err := io.ReadFull(g.randReader, buf); err != nil {
			return "", fmt.Errorf("session: failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			// Rejection sampling keeps every symbol equally likely
			if int(b) >= maxUnbiased {
				continue
			}
			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(token) == TokenLength {
				break
			}
		}
	}

	return string(token), nil
}
