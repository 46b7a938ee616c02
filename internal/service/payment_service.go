package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/storage"
)

// PaymentInfo is a payment with its itemized lines.
type PaymentInfo struct {
	Payment *model.Payment        `json:"payment"`
	Details []model.PaymentDetail `json:"details"`
}

// PaymentInput is the body of an upsert. An empty Type keeps the current
// type on update and means "other" on create.
type PaymentInput struct {
	Type   model.PaymentType
	Amount float64
}

// PaymentService keeps the ledger of a task. Amount and detail lines are
// maintained independently; nothing recomputes one from the other.
type PaymentService struct {
	tasks    TaskStore
	payments PaymentStore
	files    storage.FileStore
}

func NewPaymentService(st Stores, files storage.FileStore) *PaymentService {
	return &PaymentService{tasks: st.Tasks, payments: st.Payments, files: files}
}

// Upsert creates the task's payment or overwrites its amount.
func (s *PaymentService) Upsert(ctx context.Context, id model.Identity, taskID uint64, in PaymentInput) (*PaymentInfo, error) {
	if in.Type != "" && !in.Type.Valid() {
		return nil, apperr.Validation("type must be transfer or other")
	}
	if in.Amount < 0 {
		return nil, apperr.Validation("amount must not be negative")
	}
	if _, err := s.assigned(ctx, id, taskID); err != nil {
		return nil, err
	}

	typ := in.Type
	if typ == "" {
		typ = model.PaymentOther
	}
	err := s.payments.Create(ctx, &model.Payment{TaskID: taskID, Type: typ, Amount: in.Amount})
	if errors.Is(err, repository.ErrDuplicate) {
		err = s.payments.UpdateAmount(ctx, taskID, in.Amount, in.Type)
	}
	if err != nil {
		return nil, apperr.Dependency("save payment", err)
	}
	return s.info(ctx, taskID)
}

// AddDetail appends an itemized line to an unconfirmed payment.
func (s *PaymentService) AddDetail(ctx context.Context, id model.Identity, paymentID uint64, label string, price float64) (*model.PaymentDetail, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.Validation("detail is required")
	}
	if price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if _, err := s.assigned(ctx, id, p.TaskID); err != nil {
		return nil, err
	}
	d := &model.PaymentDetail{PaymentID: paymentID, Detail: label, Price: price}
	if err := s.payments.AddDetail(ctx, d); err != nil {
		return nil, apperr.Dependency("add payment detail", err)
	}
	return d, nil
}

// RemoveDetail deletes a line from an unconfirmed payment.
func (s *PaymentService) RemoveDetail(ctx context.Context, id model.Identity, detailID uint64) error {
	d, err := s.payments.GetDetail(ctx, detailID)
	if err != nil {
		return apperr.Dependency("load payment detail", err)
	}
	p, err := s.payments.GetByID(ctx, d.PaymentID)
	if err != nil {
		return apperr.Dependency("load payment", err)
	}
	if _, err := s.assigned(ctx, id, p.TaskID); err != nil {
		return err
	}
	return apperr.Dependency("remove payment detail", s.payments.RemoveDetail(ctx, detailID))
}

// AttachSlip stores a transfer slip uploaded by the requester and sends the
// payment back to pending for review. The previous slip file is removed.
func (s *PaymentService) AttachSlip(ctx context.Context, id model.Identity, taskID uint64, up storage.Upload) (*PaymentInfo, error) {
	t, err := s.requested(ctx, id, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.StatusPayment {
		return nil, fmt.Errorf("%w: slips are accepted only while the task is in payment, not %s",
			apperr.ErrInvalidTransition, t.Status)
	}
	p, err := s.payments.GetByTask(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}

	path, err := s.files.Store(ctx, storage.SlipImage, up)
	if err != nil {
		return nil, apperr.Dependency("store slip", err)
	}
	if err := s.payments.SetSlip(ctx, taskID, &path); err != nil {
		_ = s.files.Delete(ctx, path)
		return nil, apperr.Dependency("attach slip", err)
	}
	if p.SlipImage != nil {
		// The new slip is already recorded; a stale file is harmless.
		_ = s.files.Delete(ctx, *p.SlipImage)
	}
	return s.info(ctx, taskID)
}

// RemoveSlip clears the slip, resets the payment to pending and deletes the file.
func (s *PaymentService) RemoveSlip(ctx context.Context, id model.Identity, taskID uint64) (*PaymentInfo, error) {
	if _, err := s.requested(ctx, id, taskID); err != nil {
		return nil, err
	}
	p, err := s.payments.GetByTask(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if err := s.payments.SetSlip(ctx, taskID, nil); err != nil {
		return nil, apperr.Dependency("remove slip", err)
	}
	if p.SlipImage != nil {
		if err := s.files.Delete(ctx, *p.SlipImage); err != nil {
			return nil, apperr.Dependency("delete slip file", err)
		}
	}
	return s.info(ctx, taskID)
}

// Refuse rejects a pending payment, typically after a bad slip.
func (s *PaymentService) Refuse(ctx context.Context, id model.Identity, taskID uint64) (*PaymentInfo, error) {
	if _, err := s.assigned(ctx, id, taskID); err != nil {
		return nil, err
	}
	if _, err := s.payments.GetByTask(ctx, taskID); err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if err := s.payments.Refuse(ctx, taskID); err != nil {
		return nil, apperr.Dependency("refuse payment", err)
	}
	return s.info(ctx, taskID)
}

// Confirm marks the payment successful and, in the same write, the task.
// Confirming an already confirmed pair succeeds without changing anything.
func (s *PaymentService) Confirm(ctx context.Context, id model.Identity, taskID uint64) (*PaymentInfo, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	if id.Role != model.RoleAdmin && !(id.Role == model.RoleTechnician && t.AssignedTo(id.Subject)) {
		return nil, apperr.Forbidden("only the assigned technician or an admin may confirm payment")
	}
	if _, err := s.payments.GetByTask(ctx, taskID); err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	if t.Status != model.StatusPayment && t.Status != model.StatusSuccessful {
		return nil, &apperr.TransitionError{From: string(t.Status), To: string(model.StatusSuccessful)}
	}
	if err := s.payments.Confirm(ctx, taskID, model.StatusPayment); err != nil {
		return nil, apperr.Dependency("confirm payment", err)
	}
	return s.info(ctx, taskID)
}

// Info returns the payment of a task to its requester, assignee or an admin.
func (s *PaymentService) Info(ctx context.Context, id model.Identity, taskID uint64) (*PaymentInfo, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	switch {
	case id.Role == model.RoleAdmin,
		id.Is(model.RoleUser, t.Requester),
		id.Role == model.RoleTechnician && t.AssignedTo(id.Subject):
	default:
		return nil, apperr.Forbidden("not a participant of this task")
	}
	return s.info(ctx, taskID)
}

func (s *PaymentService) info(ctx context.Context, taskID uint64) (*PaymentInfo, error) {
	p, err := s.payments.GetByTask(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load payment", err)
	}
	details, err := s.payments.Details(ctx, p.ID)
	if err != nil {
		return nil, apperr.Dependency("list payment details", err)
	}
	return &PaymentInfo{Payment: p, Details: details}, nil
}

// assigned loads the task and checks the caller is its technician.
func (s *PaymentService) assigned(ctx context.Context, id model.Identity, taskID uint64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	if id.Role != model.RoleTechnician || !t.AssignedTo(id.Subject) {
		return nil, apperr.Forbidden("only the assigned technician may change this payment")
	}
	return t, nil
}

// requested loads the task and checks the caller is its requester.
func (s *PaymentService) requested(ctx context.Context, id model.Identity, taskID uint64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	if !id.Is(model.RoleUser, t.Requester) {
		return nil, apperr.Forbidden("only the requester may change the slip")
	}
	return t, nil
}
