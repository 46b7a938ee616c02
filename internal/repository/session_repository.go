package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/repairhub/internal/model"
)

// SessionRepo persists refresh sessions keyed by the SHA-256 of the token.
// Rows are never deleted, only marked invoked.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (token_hash, invoked, issued_at, expires_at) VALUES (?, 0, ?, ?)",
		s.TokenHash, s.IssuedAt.UTC(), s.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByHash returns the session for a token hash or ErrSessionNotFound.
// Invoked and expired sessions are returned as-is; the caller decides.
func (r *SessionRepo) GetByHash(ctx context.Context, hash string) (*model.Session, error) {
	var s model.Session
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token_hash, invoked, issued_at, expires_at FROM sessions WHERE token_hash = ? LIMIT 1",
		hash).Scan(&s.ID, &s.TokenHash, &s.Invoked, &s.IssuedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Extend pushes the expiry of a live session forward.
func (r *SessionRepo) Extend(ctx context.Context, hash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET expires_at = ? WHERE token_hash = ? AND invoked = 0",
		exp.UTC(), hash)
	if err != nil {
		return err
	}
	return affected(res, ErrSessionNotFound)
}

// Invoke revokes a live session. A session that is missing or already
// invoked yields ErrSessionNotFound, so a second logout never reactivates it.
func (r *SessionRepo) Invoke(ctx context.Context, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET invoked = 1 WHERE token_hash = ? AND invoked = 0", hash)
	if err != nil {
		return err
	}
	return affected(res, ErrSessionNotFound)
}
