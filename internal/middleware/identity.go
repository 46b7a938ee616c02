package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/auth"
	"github.com/iliyamo/repairhub/internal/model"
)

// Cookie and header names carrying credentials.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	RefreshHeader = "X-Refresh-Token"
)

const identityKey = "identity"

// Authenticator resolves presented credentials; *auth.Authenticator
// satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, p auth.Presented, roles ...model.Role) (model.Identity, *auth.Renewed, error)
}

// CookieConfig controls the credential cookies written back to clients.
type CookieConfig struct {
	Secure bool
}

// Authenticate rejects requests without a usable credential for one of
// roles. An access token renewed from the refresh token is written back as
// a cookie and in the X-Access-Token header.
func Authenticate(a Authenticator, cookies CookieConfig, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, renewed, err := a.Authenticate(c.Request().Context(), Presented(c), roles...)
			if err != nil {
				return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
			}
			if renewed != nil {
				setCookie(c, AccessCookie, renewed.Access, renewed.AccessExp, cookies.Secure)
				c.Response().Header().Set("X-Access-Token", renewed.Access)
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// Presented collects credentials from cookies first, then from the
// Authorization and X-Refresh-Token headers.
func Presented(c echo.Context) auth.Presented {
	var p auth.Presented
	if ck, err := c.Cookie(AccessCookie); err == nil {
		p.Access = ck.Value
	}
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		p.Refresh = ck.Value
	}
	if h := c.Request().Header.Get(echo.HeaderAuthorization); p.Access == "" && strings.HasPrefix(h, "Bearer ") {
		p.Access = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if p.Refresh == "" {
		p.Refresh = strings.TrimSpace(c.Request().Header.Get(RefreshHeader))
	}
	return p
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// SetCredentials writes both credential cookies after a login.
func SetCredentials(c echo.Context, creds auth.Credentials, secure bool) {
	setCookie(c, AccessCookie, creds.Access, creds.AccessExp, secure)
	setCookie(c, RefreshCookie, creds.Refresh, creds.RefreshExp, secure)
}

// ClearCredentials expires both credential cookies.
func ClearCredentials(c echo.Context, secure bool) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func setCookie(c echo.Context, name, value string, exp time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
