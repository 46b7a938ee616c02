package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/service"
)

// AccountHandler serves the caller's own profile and password.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(s *service.Services) *AccountHandler {
	return &AccountHandler{Accounts: s.Accounts}
}

type passwordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userUpdateReq struct {
	Name   string `json:"name" form:"name"`
	Email  string `json:"email" form:"email"`
	Phone  string `json:"phone" form:"phone"`
	Gender string `json:"gender" form:"gender"`
}

type technicianUpdateReq struct {
	FullName            string  `json:"full_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	Age                 int     `json:"age"`
	Address             string  `json:"address"`
	District            string  `json:"district"`
	Province            string  `json:"province"`
	WorkingAreaDistrict *string `json:"working_area_district"`
	WorkingAreaProvince *string `json:"working_area_province"`
	BirthDate           string  `json:"birth_date"`
}

// bindTechnicianUpdate reads JSON or a multipart form. In a form, a working
// area key that is present but empty clears the value.
func bindTechnicianUpdate(c echo.Context) (service.TechnicianUpdate, error) {
	var r technicianUpdateReq
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return service.TechnicianUpdate{}, apperr.Validation("invalid multipart form")
		}
		r = technicianUpdateReq{
			FullName:  c.FormValue("full_name"),
			Email:     c.FormValue("email"),
			Phone:     c.FormValue("phone"),
			Address:   c.FormValue("address"),
			District:  c.FormValue("district"),
			Province:  c.FormValue("province"),
			BirthDate: c.FormValue("birth_date"),
		}
		if s := strings.TrimSpace(c.FormValue("age")); s != "" {
			if r.Age, err = strconv.Atoi(s); err != nil {
				return service.TechnicianUpdate{}, apperr.Validation("age must be a number")
			}
		}
		if v, ok := form.Value["working_area_district"]; ok && len(v) > 0 {
			r.WorkingAreaDistrict = &v[0]
		}
		if v, ok := form.Value["working_area_province"]; ok && len(v) > 0 {
			r.WorkingAreaProvince = &v[0]
		}
	} else if err := c.Bind(&r); err != nil {
		return service.TechnicianUpdate{}, apperr.Validation("invalid body")
	}

	in := service.TechnicianUpdate{
		FullName:            r.FullName,
		Email:               r.Email,
		Phone:               r.Phone,
		Age:                 r.Age,
		Address:             r.Address,
		District:            r.District,
		Province:            r.Province,
		WorkingAreaDistrict: r.WorkingAreaDistrict,
		WorkingAreaProvince: r.WorkingAreaProvince,
	}
	var err error
	in.BirthDate, err = parseDate(r.BirthDate)
	return in, err
}

// UserProfile handles GET /v1/users/me.
func (h *AccountHandler) UserProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.UserProfile(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateUserProfile accepts JSON or a multipart form; a multipart request
// may carry a new picture under profile_image.
func (h *AccountHandler) UpdateUserProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req userUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	picture, opened, err := upload(c, "profile_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Accounts.UpdateUserProfile(ctx, id, service.UserUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Gender: req.Gender,
	}, picture)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// TechnicianProfile handles GET /v1/technicians/me.
func (h *AccountHandler) TechnicianProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Accounts.TechnicianProfile(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTechnicianProfile handles PUT /v1/technicians/me.
func (h *AccountHandler) UpdateTechnicianProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	in, err := bindTechnicianUpdate(c)
	if err != nil {
		return writeError(c, err)
	}
	picture, opened, err := upload(c, "profile_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Accounts.UpdateTechnicianProfile(ctx, id, in, picture)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// ChangePassword serves both PUT /users/me/password and
// PUT /technicians/me/password.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req passwordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.NewPassword == "" {
		return writeError(c, apperr.Validation("new_password is required"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Accounts.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
