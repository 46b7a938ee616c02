// Package router maps URLs onto handlers and attaches the auth and rate
// limit middleware per audience.
package router

import (
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/handler"
	"github.com/iliyamo/repairhub/internal/middleware"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/service"
)

// Authenticator is what the routes need from *auth.Authenticator.
type Authenticator interface {
	middleware.Authenticator
	handler.SessionEnder
}

// Deps is everything RegisterRoutes wires together.
type Deps struct {
	Services     *service.Services
	Auth         Authenticator
	Limit        echo.MiddlewareFunc // nil means no rate limiting
	CookieSecure bool
	UploadDir    string // public image dirs are served under /uploads when set
}

// RegisterRoutes registers every route of the API on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	limit := d.Limit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/healthz", handler.Health)
	if d.UploadDir != "" {
		// Id cards and slips stay private; only these are browsable.
		for _, dir := range []string{"tasks/images", "users/profile", "technicians/profile"} {
			e.Static("/uploads/"+dir, filepath.Join(d.UploadDir, dir))
		}
	}

	v1 := e.Group("/v1")
	registerPublic(section{v1, []echo.MiddlewareFunc{limit}}, d)
	registerUser(guarded(v1, d, limit, model.RoleUser), d)
	registerTechnician(guarded(v1, d, limit, model.RoleTechnician), d)
	registerAdmin(guarded(v1, d, limit, model.RoleAdmin), d)
}

// registerPublic covers signup, login, logout and the task type catalogue.
func registerPublic(g section, d Deps) {
	a := handler.NewAuthHandler(d.Services, d.Auth, d.CookieSecure)
	p := handler.NewPublicHandler(d.Services)

	g.POST("/users/register", a.RegisterUser)
	g.POST("/users/login", a.Login(model.RoleUser))
	g.POST("/technicians/register", a.RegisterTechnician)
	g.POST("/technicians/login", a.Login(model.RoleTechnician))
	g.POST("/admins/login", a.Login(model.RoleAdmin))
	g.POST("/auth/logout", a.Logout)
	g.GET("/task-types", p.TaskTypes)
}

// section mounts routes on the shared /v1 group with per-route middleware.
// The group itself stays bare so unknown /v1 paths get echo's plain 404.
type section struct {
	g  *echo.Group
	mw []echo.MiddlewareFunc
}

func (s section) GET(path string, h echo.HandlerFunc) *echo.Route {
	return s.g.GET(path, h, s.mw...)
}

func (s section) POST(path string, h echo.HandlerFunc) *echo.Route {
	return s.g.POST(path, h, s.mw...)
}

func (s section) PUT(path string, h echo.HandlerFunc) *echo.Route {
	return s.g.PUT(path, h, s.mw...)
}

func (s section) PATCH(path string, h echo.HandlerFunc) *echo.Route {
	return s.g.PATCH(path, h, s.mw...)
}

func (s section) DELETE(path string, h echo.HandlerFunc) *echo.Route {
	return s.g.DELETE(path, h, s.mw...)
}

// guarded returns a section only role may enter. The limiter runs after
// authentication so it can key on the subject.
func guarded(g *echo.Group, d Deps, limit echo.MiddlewareFunc, role model.Role) section {
	return section{g, []echo.MiddlewareFunc{
		middleware.Authenticate(d.Auth, middleware.CookieConfig{Secure: d.CookieSecure}, role),
		limit,
	}}
}
