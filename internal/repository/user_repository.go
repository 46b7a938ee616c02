package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/repairhub/internal/model"
)

// UserRepo persists customers.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, name, email, phone, gender, profile_path, password_hash, created_at, updated_at"

// Create inserts u and fills its ID. Username, email and phone are unique;
// a clash yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, name, email, phone, gender, password_hash) VALUES (?,?,?,?,?,?)",
		u.Username, u.Name, u.Email, u.Phone, u.Gender, u.PasswordHash)
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
	u.ID = uint64(id)
	return nil
}

// GetByUsername fetches a user by handle.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var (
		u       model.User
		profile sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", username).
		Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.Gender, &profile, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if profile.Valid {
		p := profile.String
		u.ProfilePath = &p
	}
	return &u, nil
}

// UpdateProfile writes the editable profile fields of u.Username.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ?, phone = ?, gender = ?, profile_path = ? WHERE username = ?",
		u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone, u.Gender, u.ProfilePath, u.Username)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return affected(res, ErrUserNotFound)
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE username = ?", hash, username)
	if err != nil {
		return err
	}
	return affected(res, ErrUserNotFound)
}
