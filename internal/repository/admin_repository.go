package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/repairhub/internal/model"
)

// AdminRepo persists back-office operators.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (username, full_name, email, password_hash) VALUES (?,?,?,?)",
		a.Username, a.FullName, a.Email, a.PasswordHash)
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
	a.ID = uint64(id)
	return nil
}

func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, full_name, email, password_hash, created_at FROM admins WHERE username = ? LIMIT 1",
		username).Scan(&a.ID, &a.Username, &a.FullName, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
