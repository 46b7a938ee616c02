// Package auth issues and verifies credentials for users, technicians and
// admins. A short-lived access JWT is checked first; when it is missing or
// expired the refresh JWT is looked up against the session store and, if
// the session is still usable, a new access token is minted transparently.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
)

// MinSecretLen is the shortest signing secret New accepts.
const MinSecretLen = 32

// Config is everything the authenticator needs. It is built once in main
// and never read from the environment here.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// SessionStore persists refresh sessions by token hash.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByHash(ctx context.Context, hash string) (*model.Session, error)
	Extend(ctx context.Context, hash string, exp time.Time) error
	Invoke(ctx context.Context, hash string) error
}

// Credentials is a freshly issued token pair.
type Credentials struct {
	Access     string
	AccessExp  time.Time
	Refresh    string
	RefreshExp time.Time
}

// Presented holds whatever tokens the client sent.
type Presented struct {
	Access  string
	Refresh string
}

// Renewed is set when Authenticate had to mint a new access token.
type Renewed struct {
	Access    string
	AccessExp time.Time
}

// ErrNoSession is returned by Logout when there is nothing to revoke.
var ErrNoSession = fmt.Errorf("no session: %w", apperr.ErrNotFound)

type Authenticator struct {
	cfg      Config
	sessions SessionStore
	now      func() time.Time
}

// Option tweaks an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now; tests use it to expire tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func New(cfg Config, sessions SessionStore, opts ...Option) (*Authenticator, error) {
	if len(cfg.Secret) < MinSecretLen {
		return nil, fmt.Errorf("auth: secret must be at least %d bytes", MinSecretLen)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token TTLs must be positive")
	}
	a := &Authenticator{cfg: cfg, sessions: sessions, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// AccessTTL and RefreshTTL let the transport layer size cookies.
func (a *Authenticator) AccessTTL() time.Duration  { return a.cfg.AccessTTL }
func (a *Authenticator) RefreshTTL() time.Duration { return a.cfg.RefreshTTL }

// Issue mints an access/refresh pair for subject and records the session.
func (a *Authenticator) Issue(ctx context.Context, subject string, role model.Role) (Credentials, error) {
	now := a.now().UTC()
	access, accessExp, err := a.signAccess(subject, role, now)
	if err != nil {
		return Credentials{}, err
	}
	refresh, err := a.signRefresh(subject, role, now)
	if err != nil {
		return Credentials{}, err
	}
	s := &model.Session{
		TokenHash: HashToken(refresh),
		IssuedAt:  now,
		ExpiresAt: now.Add(a.cfg.RefreshTTL),
	}
	if err := a.sessions.Create(ctx, s); err != nil {
		return Credentials{}, apperr.Dependency("create session", err)
	}
	return Credentials{Access: access, AccessExp: accessExp, Refresh: refresh, RefreshExp: s.ExpiresAt}, nil
}

// Authenticate resolves the caller. A role outside roles is ErrForbidden,
// distinct from ErrUnauthenticated. An empty roles list accepts any role.
func (a *Authenticator) Authenticate(ctx context.Context, p Presented, roles ...model.Role) (model.Identity, *Renewed, error) {
	if p.Access != "" {
		c, err := a.parse(p.Access)
		switch {
		case err == nil && c.Kind == kindAccess:
			id := model.Identity{Subject: c.Subject, Role: c.Role}
			return id, nil, allowed(id, roles)
		case err == nil, !errors.Is(err, jwt.ErrTokenExpired):
			return model.Identity{}, nil, unauthenticated("invalid access token")
		}
	}
	return a.refresh(ctx, p.Refresh, roles)
}

func (a *Authenticator) refresh(ctx context.Context, raw string, roles []model.Role) (model.Identity, *Renewed, error) {
	if raw == "" {
		return model.Identity{}, nil, unauthenticated("no credentials presented")
	}
	c, err := a.parse(raw)
	if err != nil || c.Kind != kindRefresh {
		return model.Identity{}, nil, unauthenticated("invalid refresh token")
	}
	hash := HashToken(raw)
	s, err := a.sessions.GetByHash(ctx, hash)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.Identity{}, nil, unauthenticated("refresh token not found")
	}
	if err != nil {
		return model.Identity{}, nil, apperr.Dependency("load session", err)
	}
	now := a.now().UTC()
	if !s.Usable(now) {
		return model.Identity{}, nil, unauthenticated("refresh token invalid or expired")
	}

	id := model.Identity{Subject: c.Subject, Role: c.Role}
	if err := allowed(id, roles); err != nil {
		return model.Identity{}, nil, err
	}

	access, exp, err := a.signAccess(id.Subject, id.Role, now)
	if err != nil {
		return model.Identity{}, nil, err
	}
	// Extend only matches live sessions, so a logout racing this refresh wins.
	if err := a.sessions.Extend(ctx, hash, now.Add(a.cfg.RefreshTTL)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Identity{}, nil, unauthenticated("refresh token invalid or expired")
		}
		return model.Identity{}, nil, apperr.Dependency("extend session", err)
	}
	return id, &Renewed{Access: access, AccessExp: exp}, nil
}

// Logout marks the session behind refresh as invoked. Without a token, or
// when the session is unknown or already invoked, it returns ErrNoSession.
func (a *Authenticator) Logout(ctx context.Context, refresh string) error {
	if refresh == "" {
		return ErrNoSession
	}
	err := a.sessions.Invoke(ctx, HashToken(refresh))
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrNoSession
	}
	return apperr.Dependency("invoke session", err)
}

func allowed(id model.Identity, roles []model.Role) error {
	if len(roles) == 0 || slices.Contains(roles, id.Role) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("role %s not allowed", id.Role))
}

func unauthenticated(msg string) error {
	return fmt.Errorf("%w: %s", apperr.ErrUnauthenticated, msg)
}
