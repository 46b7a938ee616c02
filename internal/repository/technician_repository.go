package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/repairhub/internal/model"
)

// TechnicianRepo persists approved technicians. Tasks reference technicians
// by username only, so Delete leaves task history untouched.
type TechnicianRepo struct{ db *sqlx.DB }

func NewTechnicianRepo(db *sql.DB) *TechnicianRepo {
	return &TechnicianRepo{db: sqlx.NewDb(db, "mysql")}
}

const technicianColumns = `t.id, t.username, t.full_name, t.email, t.phone, t.age, t.password_hash, t.profile_path,
	t.id_card, t.id_card_image_path, t.address, t.district, t.province,
	t.working_area_district, t.working_area_province, t.birth_date, t.created_at, t.updated_at`

func (r *TechnicianRepo) GetByID(ctx context.Context, id uint64) (*model.Technician, error) {
	return r.getOne(ctx, "t.id = ?", id)
}

func (r *TechnicianRepo) GetByUsername(ctx context.Context, username string) (*model.Technician, error) {
	return r.getOne(ctx, "t.username = ?", username)
}

func (r *TechnicianRepo) getOne(ctx context.Context, cond string, arg any) (*model.Technician, error) {
	var t model.Technician
	err := r.db.GetContext(ctx, &t, "SELECT "+technicianColumns+" FROM technicians t WHERE "+cond+" LIMIT 1", arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTechnicianNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListWithCounts returns every technician with total, fixing, successful
// and failed task counts.
func (r *TechnicianRepo) ListWithCounts(ctx context.Context) ([]model.TechnicianSummary, error) {
	out := []model.TechnicianSummary{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+technicianColumns+`,
		COUNT(k.id) AS total,
		COALESCE(SUM(k.status = 'fixing'), 0) AS fixing,
		COALESCE(SUM(k.status = 'successful'), 0) AS successful,
		COALESCE(SUM(k.status = 'failed'), 0) AS failed
		FROM technicians t
		LEFT JOIN tasks k ON k.assignee = t.username
		GROUP BY t.id
		ORDER BY t.id`)
	return out, err
}

// Update writes the editable profile fields of t.ID.
func (r *TechnicianRepo) Update(ctx context.Context, t *model.Technician) error {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	res, err := r.db.NamedExecContext(ctx, `UPDATE technicians SET
		full_name = :full_name, email = :email, phone = :phone, age = :age, profile_path = :profile_path,
		address = :address, district = :district, province = :province,
		working_area_district = :working_area_district, working_area_province = :working_area_province,
		birth_date = :birth_date
		WHERE id = :id`, t)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return affected(res, ErrTechnicianNotFound)
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *TechnicianRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE technicians SET password_hash = ? WHERE username = ?", hash, username)
	if err != nil {
		return err
	}
	return affected(res, ErrTechnicianNotFound)
}

// Delete removes the technician record.
func (r *TechnicianRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM technicians WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res, ErrTechnicianNotFound)
}
