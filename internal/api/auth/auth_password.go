package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/talkio/go-user-accounts/internal/api"
)

// HashPassword hashes a plaintext password with a per-call random salt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", api.ErrUpstream)
	}
	return string(hashed), nil
}

// ComparePassword reports whether password matches hashedPassword.
// A mismatch is not an error; only primitive failures are.
func ComparePassword(password, hashedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", api.ErrUpstream)
}
