package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/repairhub/internal/model"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// claims is the payload of both token kinds. Refresh tokens carry no exp;
// their lifetime is bounded by the session row instead.
type claims struct {
	Role model.Role `json:"role"`
	Kind string     `json:"typ"`
	jwt.RegisteredClaims
}

func (a *Authenticator) signAccess(subject string, role model.Role, now time.Time) (string, time.Time, error) {
	exp := now.Add(a.cfg.AccessTTL)
	c := claims{
		Role: role,
		Kind: kindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.cfg.Secret)
	return signed, exp, err
}

func (a *Authenticator) signRefresh(subject string, role model.Role, now time.Time) (string, error) {
	c := claims{
		Role: role,
		Kind: kindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.cfg.Secret)
}

func (a *Authenticator) parse(raw string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) { return a.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	return c, err
}

// HashToken returns the hex SHA-256 of a raw refresh token. Only the hash
// is ever stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
