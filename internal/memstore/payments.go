package memstore

import (
	"context"
	"sort"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

type Payments struct{ s *Store }

func clonePayment(p *model.Payment) *model.Payment {
	out := *p
	out.SlipImage = strPtr(p.SlipImage)
	return &out
}

// byTask must be called with mu held.
func (r *Payments) byTask(taskID uint64) *model.Payment {
	for _, p := range r.s.payments {
		if p.TaskID == taskID {
			return p
		}
	}
	return nil
}

func (r *Payments) GetByTask(_ context.Context, taskID uint64) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byTask(taskID)
	if p == nil {
		return nil, repository.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *Payments) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *Payments) Create(_ context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.byTask(p.TaskID) != nil {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	p.ID = r.s.nextID()
	p.Status = model.PaymentPending
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *Payments) UpdateAmount(_ context.Context, taskID uint64, amount float64, typ model.PaymentType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byTask(taskID)
	if p == nil || p.Confirmed() {
		return repository.ErrPaymentConfirmed
	}
	p.Amount = amount
	if typ != "" {
		p.Type = typ
	}
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *Payments) SetSlip(_ context.Context, taskID uint64, path *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byTask(taskID)
	if p == nil || p.Confirmed() {
		return repository.ErrPaymentConfirmed
	}
	p.SlipImage = strPtr(path)
	p.Status = model.PaymentPending
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *Payments) Refuse(_ context.Context, taskID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byTask(taskID)
	if p == nil || p.Status != model.PaymentPending {
		return repository.ErrPaymentStateChanged
	}
	p.Status = model.PaymentRefused
	p.UpdatedAt = r.s.now()
	return nil
}

// Confirm flips both records under one lock, mirroring the SQL transaction.
func (r *Payments) Confirm(_ context.Context, taskID uint64, from model.TaskStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byTask(taskID)
	if p == nil {
		return repository.ErrPaymentNotFound
	}
	t, ok := r.s.tasks[taskID]
	if !ok || (t.Status != from && t.Status != model.StatusSuccessful) {
		return repository.ErrTaskStateChanged
	}
	now := r.s.now()
	p.Status = model.PaymentSuccessful
	p.UpdatedAt = now
	t.Status = model.StatusSuccessful
	t.UpdatedAt = now
	return nil
}

func (r *Payments) Details(_ context.Context, paymentID uint64) ([]model.PaymentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.PaymentDetail{}
	for _, d := range r.s.details {
		if d.PaymentID == paymentID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Payments) GetDetail(_ context.Context, id uint64) (*model.PaymentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return nil, repository.ErrDetailNotFound
	}
	out := *d
	return &out, nil
}

func (r *Payments) AddDetail(_ context.Context, d *model.PaymentDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[d.PaymentID]
	if !ok || p.Confirmed() {
		return repository.ErrPaymentConfirmed
	}
	d.ID = r.s.nextID()
	d.CreatedAt = r.s.now()
	cp := *d
	r.s.details[d.ID] = &cp
	return nil
}

func (r *Payments) RemoveDetail(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return repository.ErrPaymentConfirmed
	}
	if p, ok := r.s.payments[d.PaymentID]; !ok || p.Confirmed() {
		return repository.ErrPaymentConfirmed
	}
	delete(r.s.details, id)
	return nil
}
