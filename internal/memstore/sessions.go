package memstore

import (
	"context"
	"time"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

type Sessions struct{ s *Store }

func (r *Sessions) Create(_ context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[sess.TokenHash]; ok {
		return repository.ErrDuplicate
	}
	sess.ID = r.s.nextID()
	cp := *sess
	r.s.sessions[sess.TokenHash] = &cp
	return nil
}

func (r *Sessions) GetByHash(_ context.Context, hash string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[hash]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *Sessions) Extend(_ context.Context, hash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[hash]
	if !ok || sess.Invoked {
		return repository.ErrSessionNotFound
	}
	sess.ExpiresAt = exp
	return nil
}

func (r *Sessions) Invoke(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[hash]
	if !ok || sess.Invoked {
		return repository.ErrSessionNotFound
	}
	sess.Invoked = true
	return nil
}
