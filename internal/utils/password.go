package utils

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/repairhub/internal/apperr"
)

// MinPasswordLen is the shortest password accepted on signup or change.
const MinPasswordLen = 8

// HashPassword returns a bcrypt hash using the given cost. Passwords shorter
// than MinPasswordLen or longer than bcrypt's 72-byte limit are rejected
// with a validation error.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) < MinPasswordLen {
		return "", apperr.Validation("password must be at least 8 characters")
	}
	if len(plain) > 72 {
		return "", apperr.Validation("password must be at most 72 bytes")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
