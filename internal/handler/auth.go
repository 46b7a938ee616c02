package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/middleware"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/service"
)

// SessionEnder revokes a refresh session; *auth.Authenticator satisfies it.
type SessionEnder interface {
	Logout(ctx context.Context, refresh string) error
}

// AuthHandler serves signup, login and logout for every role.
type AuthHandler struct {
	Accounts     *service.AccountService
	Roster       *service.RosterService
	Sessions     SessionEnder
	CookieSecure bool
}

func NewAuthHandler(s *service.Services, sessions SessionEnder, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Accounts: s.Accounts, Roster: s.Roster, Sessions: sessions, CookieSecure: cookieSecure}
}

// ----- DTOs -----

type userSignupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
}

type loginReq struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Subject string     `json:"subject"`
	Role    model.Role `json:"role"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
	User    any        `json:"user,omitempty"`
}

// RegisterUser creates a customer account and logs it in.
func (h *AuthHandler) RegisterUser(c echo.Context) error {
	var req userSignupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, acct, err := h.Accounts.RegisterUser(ctx, service.UserSignup{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   req.Gender,
	})
	if err != nil {
		return writeError(c, err)
	}
	resp := h.signIn(c, acct)
	resp.User = u
	return c.JSON(http.StatusCreated, resp)
}

// RegisterTechnician files a technician application. The body is a
// multipart form with the id card scan under id_card_image.
func (h *AuthHandler) RegisterTechnician(c echo.Context) error {
	in := service.Signup{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
		FullName: c.FormValue("full_name"),
		Email:    c.FormValue("email"),
		Phone:    c.FormValue("phone"),
		IDCard:   c.FormValue("id_card"),
		Address:  c.FormValue("address"),
		District: c.FormValue("district"),
		Province: c.FormValue("province"),
	}
	var err error
	if in.Age, err = strconv.Atoi(strings.TrimSpace(c.FormValue("age"))); err != nil {
		return writeError(c, apperr.Validation("age must be a number"))
	}
	if in.BirthDate, err = parseDate(c.FormValue("birth_date")); err != nil {
		return writeError(c, err)
	}
	card, opened, err := upload(c, "id_card_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()
	if card == nil {
		return writeError(c, apperr.Validation("id_card_image is required"))
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	reg, err := h.Roster.Register(ctx, in, *card)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// Login returns a handler that signs in role.
func (h *AuthHandler) Login(role model.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		ctx, cancel := reqCtx(c)
		defer cancel()

		acct, err := h.Accounts.Login(ctx, role, req.Username, req.Password)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, h.signIn(c, acct))
	}
}

// Logout revokes the presented refresh session and clears the cookies.
// Logging out twice is 404.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Sessions.Logout(ctx, middleware.Presented(c).Refresh)
	middleware.ClearCredentials(c, h.CookieSecure)
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) signIn(c echo.Context, a *service.Account) authResp {
	middleware.SetCredentials(c, a.Credentials, h.CookieSecure)
	return authResp{
		Subject: a.Subject,
		Role:    a.Role,
		Access:  tokenPart{Token: a.Credentials.Access, Expires: a.Credentials.AccessExp},
		Refresh: tokenPart{Token: a.Credentials.Refresh, Expires: a.Credentials.RefreshExp},
	}
}

// parseDate accepts YYYY-MM-DD; an empty value is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Validation("birth_date must be YYYY-MM-DD")
	}
	return t, nil
}
