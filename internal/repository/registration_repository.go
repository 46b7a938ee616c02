package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/repairhub/internal/model"
)

// RegistrationRepo persists technician signups awaiting admin review.
type RegistrationRepo struct{ db *sqlx.DB }

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo {
	return &RegistrationRepo{db: sqlx.NewDb(db, "mysql")}
}

const registrationColumns = `id, username, password_hash, full_name, email, phone, age, id_card, id_card_image_path,
	address, district, province, birth_date, status, created_at, updated_at`

// Create inserts a pending registration. A reused email yields ErrDuplicate.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.TechnicianRegistration) error {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Status = model.RegistrationPending
	res, err := r.db.NamedExecContext(ctx, `INSERT INTO technician_registrations
		(username, password_hash, full_name, email, phone, age, id_card, id_card_image_path, address, district, province, birth_date, status)
		VALUES (:username, :password_hash, :full_name, :email, :phone, :age, :id_card, :id_card_image_path,
		        :address, :district, :province, :birth_date, :status)`, reg)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = uint64(id)
	return nil
}

func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (*model.TechnicianRegistration, error) {
	var reg model.TechnicianRegistration
	err := r.db.GetContext(ctx, &reg, "SELECT "+registrationColumns+" FROM technician_registrations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// EmailExists reports whether a registration already uses email.
func (r *RegistrationRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM technician_registrations WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
	return n > 0, err
}

// List returns every registration, newest first.
func (r *RegistrationRepo) List(ctx context.Context) ([]model.TechnicianRegistration, error) {
	out := []model.TechnicianRegistration{}
	err := r.db.SelectContext(ctx, &out, "SELECT "+registrationColumns+" FROM technician_registrations ORDER BY created_at DESC, id DESC")
	return out, err
}

// Approve promotes a pending registration into a technician in one
// transaction: the registration row is locked, the technician is inserted
// and the registration flips pending to approved.
func (r *RegistrationRepo) Approve(ctx context.Context, id uint64) (*model.Technician, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var reg model.TechnicianRegistration
	err = tx.GetContext(ctx, &reg, "SELECT "+registrationColumns+" FROM technician_registrations WHERE id = ? FOR UPDATE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationPending {
		return nil, ErrRegistrationDecided
	}

	var clashes int
	err = tx.GetContext(ctx, &clashes,
		"SELECT COUNT(*) FROM technicians WHERE username = ? OR email = ? OR phone = ? OR id_card = ?",
		reg.Username, reg.Email, reg.Phone, reg.IDCard)
	if err != nil {
		return nil, err
	}
	if clashes > 0 {
		return nil, ErrDuplicate
	}

	tech := reg.Technician()
	res, err := tx.NamedExecContext(ctx, `INSERT INTO technicians
		(username, full_name, email, phone, age, password_hash, id_card, id_card_image_path, address, district, province, birth_date)
		VALUES (:username, :full_name, :email, :phone, :age, :password_hash, :id_card, :id_card_image_path,
		        :address, :district, :province, :birth_date)`, tech)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	techID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	tech.ID = uint64(techID)

	res, err = tx.ExecContext(ctx,
		"UPDATE technician_registrations SET status = 'approved' WHERE id = ? AND status = 'pending'", id)
	if err != nil {
		return nil, err
	}
	if err := affected(res, ErrRegistrationDecided); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return tech, nil
}

// Reject flips a pending registration to rejected.
func (r *RegistrationRepo) Reject(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE technician_registrations SET status = 'rejected' WHERE id = ? AND status = 'pending'", id)
	if err != nil {
		return err
	}
	if err := affected(res, ErrRegistrationDecided); err != nil {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return err
	}
	return nil
}

// Delete removes a registration regardless of status.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM technician_registrations WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res, ErrRegistrationNotFound)
}
