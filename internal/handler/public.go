package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/service"
)

// PublicHandler serves unauthenticated lookups.
type PublicHandler struct {
	Tasks *service.TaskService
}

func NewPublicHandler(s *service.Services) *PublicHandler {
	return &PublicHandler{Tasks: s.Tasks}
}

// TaskTypes lists the repair categories a task can be filed under.
func (h *PublicHandler) TaskTypes(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	types, err := h.Tasks.TaskTypes(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, types)
}

// Health is the liveness probe for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
