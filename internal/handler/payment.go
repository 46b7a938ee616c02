package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/service"
)

// PaymentHandler serves the payment ledger of a task.
type PaymentHandler struct {
	Payments *service.PaymentService
}

func NewPaymentHandler(s *service.Services) *PaymentHandler {
	return &PaymentHandler{Payments: s.Payments}
}

type paymentReq struct {
	Type   model.PaymentType `json:"type"`
	Amount float64           `json:"amount"`
}

type detailReq struct {
	Detail string  `json:"detail"`
	Price  float64 `json:"price"`
}

// Info returns the payment of a task with its detail lines.
func (h *PaymentHandler) Info(c echo.Context) error {
	return h.run(c, h.Payments.Info, http.StatusOK)
}

// Upsert sets the amount and type, creating the payment on first use.
func (h *PaymentHandler) Upsert(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.Upsert(ctx, id, taskID, service.PaymentInput{Type: req.Type, Amount: req.Amount})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// AddDetail handles POST /v1/technician/payments/:id/details; id is the
// payment, not the task.
func (h *PaymentHandler) AddDetail(c echo.Context) error {
	id, paymentID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req detailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := h.Payments.AddDetail(ctx, id, paymentID, req.Detail, req.Price)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// RemoveDetail handles DELETE /v1/technician/payment-details/:id.
func (h *PaymentHandler) RemoveDetail(c echo.Context) error {
	id, detailID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Payments.RemoveDetail(ctx, id, detailID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AttachSlip uploads the requester's transfer slip under slip_image.
func (h *PaymentHandler) AttachSlip(c echo.Context) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	slip, opened, err := upload(c, "slip_image")
	if err != nil {
		return writeError(c, err)
	}
	defer opened.Close()
	if slip == nil {
		return writeError(c, apperr.Validation("slip_image is required"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Payments.AttachSlip(ctx, id, taskID, *slip)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// RemoveSlip handles DELETE /v1/user/tasks/:id/payment/slip.
func (h *PaymentHandler) RemoveSlip(c echo.Context) error {
	return h.run(c, h.Payments.RemoveSlip, http.StatusOK)
}

// Refuse sends the slip back to the requester.
func (h *PaymentHandler) Refuse(c echo.Context) error {
	return h.run(c, h.Payments.Refuse, http.StatusOK)
}

// Confirm marks the payment and the task successful together. Admins and
// the assigned technician share it.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	return h.run(c, h.Payments.Confirm, http.StatusOK)
}

type paymentOp func(ctx context.Context, id model.Identity, taskID uint64) (*service.PaymentInfo, error)

func (h *PaymentHandler) run(c echo.Context, op paymentOp, status int) error {
	id, taskID, err := callerAndID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := op(ctx, id, taskID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, p)
}
