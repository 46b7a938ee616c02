package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/service"
)

// AdminHandler serves the back office: statistics and technician onboarding.
type AdminHandler struct {
	Roster  *service.RosterService
	Reports *service.ReportService
}

// NewAdminHandler wires the roster and report services.
func NewAdminHandler(s *service.Services) *AdminHandler {
	return &AdminHandler{Roster: s.Roster, Reports: s.Reports}
}

// Dashboard handles GET /v1/admin/stats/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Reports.Dashboard(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Revenue totals confirmed payments overall and per month.
func (h *AdminHandler) Revenue(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Reports.Revenue(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// ListRoster handles GET /v1/admin/technicians-all: pending applications
// and active technicians with their task counts.
func (h *AdminHandler) ListRoster(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Roster.ListRoster(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// GetTechnician handles GET /v1/admin/technicians/:id.
func (h *AdminHandler) GetTechnician(c echo.Context) error {
	id, techID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Roster.GetTechnician(ctx, id, techID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTechnician handles PUT /v1/admin/technicians/:id with a JSON or
// multipart body.
func (h *AdminHandler) UpdateTechnician(c echo.Context) error {
	id, techID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	in, err := bindTechnicianUpdate(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Roster.UpdateTechnician(ctx, id, techID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTechnician handles DELETE /v1/admin/technicians/:id.
func (h *AdminHandler) DeleteTechnician(c echo.Context) error {
	id, techID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Roster.DeleteTechnician(ctx, id, techID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Approve promotes a registration; the new technician can log in at once.
func (h *AdminHandler) Approve(c echo.Context) error {
	id, regID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Roster.Approve(ctx, id, regID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Reject handles POST /v1/admin/registrations/:id/reject.
func (h *AdminHandler) Reject(c echo.Context) error {
	id, regID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Roster.Reject(ctx, id, regID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteRegistration handles DELETE /v1/admin/registrations/:id.
func (h *AdminHandler) DeleteRegistration(c echo.Context) error {
	id, regID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Roster.DeleteRegistration(ctx, id, regID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
