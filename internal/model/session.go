package model

import "time"

// Role names the identity class carried in credentials.
type Role string

const (
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Identity is the authenticated caller attached to each request. Subject is
// the username of the user, technician or admin.
type Identity struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// Is reports whether the identity has the given role and subject.
func (i Identity) Is(role Role, subject string) bool {
	return i.Role == role && i.Subject == subject
}

// Session tracks one issued refresh credential. Rows are never deleted;
// logout only marks them invoked. Only the SHA-256 of the token is stored.
type Session struct {
	ID        uint64    // sessions.id
	TokenHash string    // sessions.token_hash (unique)
	Invoked   bool      // sessions.invoked
	IssuedAt  time.Time // sessions.issued_at
	ExpiresAt time.Time // sessions.expires_at
}

// Usable reports whether the session can still mint access credentials at now.
func (s *Session) Usable(now time.Time) bool {
	return !s.Invoked && now.Before(s.ExpiresAt)
}
