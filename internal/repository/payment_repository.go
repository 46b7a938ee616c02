package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/repairhub/internal/model"
)

// PaymentRepo persists payments and their itemized lines. A confirmed
// (successful) payment is frozen: every mutating statement below carries
// status <> 'successful' in its WHERE clause.
type PaymentRepo struct{ DB *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

const paymentColumns = "id, task_id, type, amount, slip_image, status, created_at, updated_at"

// GetByTask returns the payment of a task or ErrPaymentNotFound.
func (r *PaymentRepo) GetByTask(ctx context.Context, taskID uint64) (*model.Payment, error) {
	return r.get(ctx, "task_id", taskID)
}

// GetByID returns a payment by its own id or ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	return r.get(ctx, "id", id)
}

func (r *PaymentRepo) get(ctx context.Context, col string, v uint64) (*model.Payment, error) {
	var (
		p    model.Payment
		slip sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE "+col+" = ?", v).
		Scan(&p.ID, &p.TaskID, &p.Type, &p.Amount, &slip, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if slip.Valid {
		s := slip.String
		p.SlipImage = &s
	}
	return &p, nil
}

// Create inserts a pending payment. A concurrent insert for the same task
// yields ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO payments (task_id, type, amount, status) VALUES (?, ?, ?, 'pending')",
		p.TaskID, p.Type, p.Amount)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateAmount overwrites amount, and type when typ is non-empty, unless the
// payment is already confirmed.
func (r *PaymentRepo) UpdateAmount(ctx context.Context, taskID uint64, amount float64, typ model.PaymentType) error {
	q := "UPDATE payments SET amount = ?"
	args := []any{amount}
	if typ != "" {
		q += ", type = ?"
		args = append(args, typ)
	}
	q += " WHERE task_id = ? AND status <> 'successful'"
	args = append(args, taskID)
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return affected(res, ErrPaymentConfirmed)
}

// SetSlip stores or clears the slip path and sends the payment back to
// pending for re-review.
func (r *PaymentRepo) SetSlip(ctx context.Context, taskID uint64, path *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE payments SET slip_image = ?, status = 'pending' WHERE task_id = ? AND status <> 'successful'",
		path, taskID)
	if err != nil {
		return err
	}
	return affected(res, ErrPaymentConfirmed)
}

// Refuse marks a pending payment refused.
func (r *PaymentRepo) Refuse(ctx context.Context, taskID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE payments SET status = 'refused' WHERE task_id = ? AND status = 'pending'", taskID)
	if err != nil {
		return err
	}
	return affected(res, ErrPaymentStateChanged)
}

// Confirm flips the payment and its task to successful in one transaction.
// The task write only matches while the task is at from or already
// successful, so confirming twice is harmless and a task that moved away
// in the meantime rolls both writes back with ErrTaskStateChanged.
func (r *PaymentRepo) Confirm(ctx context.Context, taskID uint64, from model.TaskStatus) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE payments SET status = 'successful' WHERE task_id = ?", taskID)
	if err != nil {
		return err
	}
	if err := affected(res, ErrPaymentNotFound); err != nil {
		return err
	}
	res, err = tx.ExecContext(ctx,
		"UPDATE tasks SET status = 'successful' WHERE id = ? AND status IN (?, 'successful')",
		taskID, from)
	if err != nil {
		return err
	}
	if err := affected(res, ErrTaskStateChanged); err != nil {
		return err
	}
	return tx.Commit()
}

// Details lists the lines of a payment in insertion order.
func (r *PaymentRepo) Details(ctx context.Context, paymentID uint64) ([]model.PaymentDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, payment_id, detail, price, created_at FROM payment_details WHERE payment_id = ? ORDER BY id",
		paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PaymentDetail{}
	for rows.Next() {
		var d model.PaymentDetail
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.Detail, &d.Price, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetail loads one line or returns ErrDetailNotFound.
func (r *PaymentRepo) GetDetail(ctx context.Context, id uint64) (*model.PaymentDetail, error) {
	var d model.PaymentDetail
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, payment_id, detail, price, created_at FROM payment_details WHERE id = ?", id).
		Scan(&d.ID, &d.PaymentID, &d.Detail, &d.Price, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetailNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// AddDetail appends a line; the INSERT ... SELECT only produces a row while
// the parent payment is unconfirmed.
func (r *PaymentRepo) AddDetail(ctx context.Context, d *model.PaymentDetail) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO payment_details (payment_id, detail, price)
		 SELECT id, ?, ? FROM payments WHERE id = ? AND status <> 'successful'`,
		d.Detail, d.Price, d.PaymentID)
	if err != nil {
		return err
	}
	if err := affected(res, ErrPaymentConfirmed); err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetDetail(ctx, uint64(id))
	if err != nil {
		return err
	}
	*d = *created
	return nil
}

// RemoveDetail deletes a line while its payment is unconfirmed.
func (r *PaymentRepo) RemoveDetail(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE d FROM payment_details d
		 JOIN payments p ON p.id = d.payment_id
		 WHERE d.id = ? AND p.status <> 'successful'`, id)
	if err != nil {
		return err
	}
	return affected(res, ErrPaymentConfirmed)
}
