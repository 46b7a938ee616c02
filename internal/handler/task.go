package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/service"
)

// TaskHandler serves the task lifecycle to users and technicians. Which
// tasks a caller may see or move is decided by the services from the
// caller's role, so the same handler backs both route groups.
type TaskHandler struct {
	Tasks   *service.TaskService
	Media   *service.MediaService
	Reports *service.ReportService
}

func NewTaskHandler(s *service.Services) *TaskHandler {
	return &TaskHandler{Tasks: s.Tasks, Media: s.Media, Reports: s.Reports}
}

type statusReq struct {
	Status model.TaskStatus `json:"status"`
}

// Create handles POST /v1/user/tasks. Fields come as a multipart form with
// any number of task_image parts.
func (h *TaskHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	typeID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("task_type_id")), 10, 64)
	if err != nil {
		return writeError(c, apperr.Validation("task_type_id must be a number"))
	}
	images, opened, err := uploads(c, "task_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.Create(ctx, id, service.NewTask{
		TaskTypeID: typeID,
		Title:      c.FormValue("title"),
		Detail:     c.FormValue("detail"),
		Address:    c.FormValue("address"),
		District:   c.FormValue("district"),
		Province:   c.FormValue("province"),
		Images:     images,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Mine lists the caller's tasks: as requester for users, as assignee for
// technicians.
func (h *TaskHandler) Mine(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tasks, err := h.Tasks.ListMine(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// Available lists unclaimed pending tasks for technicians.
func (h *TaskHandler) Available(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tasks, err := h.Tasks.ListAvailable(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// Detail returns one task with its type, payment and images.
func (h *TaskHandler) Detail(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Tasks.Detail(ctx, id, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// Accept claims a pending task for the calling technician. Losing a race
// to another technician is 409.
func (h *TaskHandler) Accept(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.Claim(ctx, id, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateStatus handles PUT /v1/technician/tasks/:id/status with a JSON
// {"status": ...} body.
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.UpdateStatus(ctx, id, taskID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Cancel asks for an accepted task to be cancelled.
func (h *TaskHandler) Cancel(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tasks.RequestCancel(ctx, id, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// AttachImage stores one task_image part with an optional description.
func (h *TaskHandler) AttachImage(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	img, opened, err := upload(c, "task_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()
	if img == nil {
		return writeError(c, apperr.Validation("task_image is required"))
	}
	var desc *string
	if d := strings.TrimSpace(c.FormValue("description")); d != "" {
		desc = &d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	ti, err := h.Media.AttachImage(ctx, id, taskID, *img, desc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ti)
}

// ListImages handles GET /v1/{user,technician}/tasks/:id/images.
func (h *TaskHandler) ListImages(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	imgs, err := h.Media.ListImages(ctx, id, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, imgs)
}

// Dashboard summarizes the calling user's tasks.
func (h *TaskHandler) Dashboard(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sum, err := h.Reports.UserSummary(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func callerAndID(c echo.Context) (model.Identity, uint64, error) {
	id, err := caller(c)
	if err != nil {
		return id, 0, err
	}
	n, err := paramID(c, "id")
	return id, n, err
}
