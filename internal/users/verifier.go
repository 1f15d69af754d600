package users

import (
	"context"
	"errors"

	"medialist/internal/auth"
)

// Verifier checks login credentials against the users table
type Verifier struct {
	store  Store
	hasher Hasher
}

// NewVerifier creates a credential verifier over store
func NewVerifier(store Store, hasher Hasher) *Verifier {
	return &Verifier{store: store, hasher: hasher}
}

// Verify implements auth.CredentialVerifier. Unknown usernames and wrong
// passwords are both a plain mismatch.
func (v *Verifier) Verify(ctx context.Context, username, password string) (auth.Identity, error) {
	user, err := v.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return auth.Identity{}, nil
	}
	if err != nil {
		return auth.Identity{}, err
	}

	if !v.hasher.Verify(user.PasswordHash, user.Username, password) {
		return auth.Identity{}, nil
	}

	return auth.Identity{Matched: true, IsAdmin: user.IsAdmin}, nil
}
