package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/auth"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/storage"
	"github.com/iliyamo/repairhub/internal/utils"
)

// Issuer mints credentials after a successful login.
type Issuer interface {
	Issue(ctx context.Context, subject string, role model.Role) (auth.Credentials, error)
}

// UserSignup is the body of user self-registration.
type UserSignup struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
	Gender   string
}

// UserUpdate carries editable profile fields; empty strings keep the value.
type UserUpdate struct {
	Name   string
	Email  string
	Phone  string
	Gender string
}

// Account is what a login hands back: the credential pair and the subject.
type Account struct {
	Subject     string
	Role        model.Role
	Credentials auth.Credentials
}

var errBadCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)

// AccountService covers signup, login, profiles and password changes for
// every role.
type AccountService struct {
	users      UserStore
	techs      TechnicianStore
	admins     AdminStore
	issuer     Issuer
	files      storage.FileStore
	bcryptCost int
}

func NewAccountService(st Stores, issuer Issuer, files storage.FileStore, bcryptCost int) *AccountService {
	return &AccountService{
		users:      st.Users,
		techs:      st.Technicians,
		admins:     st.Admins,
		issuer:     issuer,
		files:      files,
		bcryptCost: bcryptCost,
	}
}

// RegisterUser creates a customer account and logs it in.
func (s *AccountService) RegisterUser(ctx context.Context, in UserSignup) (*model.User, *Account, error) {
	in.Email = normEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Gender == "" {
		in.Gender = "other"
	}
	if in.Name == "" {
		return nil, nil, apperr.Validation("name is required")
	}
	if err := firstErr(checkUsername(in.Username), checkEmail(in.Email), checkPhone(in.Phone), checkGender(in.Gender)); err != nil {
		return nil, nil, err
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperr.Dependency("hash password", err)
	}
	u := &model.User{Username: in.Username, Name: in.Name, Email: in.Email, Phone: in.Phone, Gender: in.Gender, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, apperr.Dependency("create user", err)
	}
	acc, err := s.issue(ctx, u.Username, model.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	return u, acc, nil
}

// Login verifies a password for the given role. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, role model.Role, username, password string) (*Account, error) {
	var (
		hash string
		err  error
	)
	switch role {
	case model.RoleUser:
		var u *model.User
		if u, err = s.users.GetByUsername(ctx, username); err == nil {
			hash = u.PasswordHash
		}
	case model.RoleTechnician:
		var t *model.Technician
		if t, err = s.techs.GetByUsername(ctx, username); err == nil {
			hash = t.PasswordHash
		}
	case model.RoleAdmin:
		var a *model.Admin
		if a, err = s.admins.GetByUsername(ctx, username); err == nil {
			hash = a.PasswordHash
		}
	default:
		return nil, apperr.Validation("unknown role")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apperr.Dependency("load account", err)
	}
	if !utils.VerifyPassword(hash, password) {
		return nil, errBadCredentials
	}
	return s.issue(ctx, username, role)
}

func (s *AccountService) UserProfile(ctx context.Context, id model.Identity) (*model.User, error) {
	if id.Role != model.RoleUser {
		return nil, apperr.Forbidden("user only")
	}
	u, err := s.users.GetByUsername(ctx, id.Subject)
	if err != nil {
		return nil, apperr.Dependency("load user", err)
	}
	return u, nil
}

// UpdateUserProfile edits the caller's profile and optionally replaces the
// profile picture.
func (s *AccountService) UpdateUserProfile(ctx context.Context, id model.Identity, in UserUpdate, picture *storage.Upload) (*model.User, error) {
	u, err := s.UserProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		u.Name = v
	}
	if in.Email != "" {
		u.Email = normEmail(in.Email)
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.Gender != "" {
		u.Gender = in.Gender
	}
	if err := firstErr(checkEmail(u.Email), checkPhone(u.Phone), checkGender(u.Gender)); err != nil {
		return nil, err
	}

	old, err := s.replacePicture(ctx, storage.UserProfile, picture, &u.ProfilePath)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		s.rollbackPicture(ctx, picture, u.ProfilePath)
		return nil, apperr.Dependency("update user", err)
	}
	s.dropPicture(ctx, old)
	return u, nil
}

func (s *AccountService) TechnicianProfile(ctx context.Context, id model.Identity) (*model.Technician, error) {
	if id.Role != model.RoleTechnician {
		return nil, apperr.Forbidden("technician only")
	}
	t, err := s.techs.GetByUsername(ctx, id.Subject)
	if err != nil {
		return nil, apperr.Dependency("load technician", err)
	}
	return t, nil
}

func (s *AccountService) UpdateTechnicianProfile(ctx context.Context, id model.Identity, in TechnicianUpdate, picture *storage.Upload) (*model.Technician, error) {
	t, err := s.TechnicianProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTechnicianUpdate(t, in); err != nil {
		return nil, err
	}
	old, err := s.replacePicture(ctx, storage.TechnicianProfile, picture, &t.ProfilePath)
	if err != nil {
		return nil, err
	}
	if err := s.techs.Update(ctx, t); err != nil {
		s.rollbackPicture(ctx, picture, t.ProfilePath)
		return nil, apperr.Dependency("update technician", err)
	}
	s.dropPicture(ctx, old)
	return t, nil
}

// ChangePassword checks the current password before storing the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, id model.Identity, current, next string) error {
	var (
		hash   string
		update func(ctx context.Context, username, hash string) error
	)
	switch id.Role {
	case model.RoleUser:
		u, err := s.UserProfile(ctx, id)
		if err != nil {
			return err
		}
		hash, update = u.PasswordHash, s.users.UpdatePassword
	case model.RoleTechnician:
		t, err := s.TechnicianProfile(ctx, id)
		if err != nil {
			return err
		}
		hash, update = t.PasswordHash, s.techs.UpdatePassword
	default:
		return apperr.Forbidden("password change is for users and technicians")
	}
	if !utils.VerifyPassword(hash, current) {
		return apperr.Validation("current password is incorrect")
	}
	newHash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperr.Dependency("hash password", err)
	}
	return apperr.Dependency("update password", update(ctx, id.Subject, newHash))
}

// CreateAdmin provisions a back-office account; only the CLI calls it.
func (s *AccountService) CreateAdmin(ctx context.Context, username, fullName, email, password string) (*model.Admin, error) {
	email = normEmail(email)
	if err := firstErr(checkUsername(username), checkEmail(email)); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Dependency("hash password", err)
	}
	a := &model.Admin{Username: username, FullName: strings.TrimSpace(fullName), Email: email, PasswordHash: hash}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, apperr.Dependency("create admin", err)
	}
	return a, nil
}

func (s *AccountService) issue(ctx context.Context, subject string, role model.Role) (*Account, error) {
	creds, err := s.issuer.Issue(ctx, subject, role)
	if err != nil {
		return nil, apperr.Dependency("issue credentials", err)
	}
	return &Account{Subject: subject, Role: role, Credentials: creds}, nil
}

// replacePicture stores picture and points *dst at it, returning the path
// it replaced. A nil picture changes nothing.
func (s *AccountService) replacePicture(ctx context.Context, c storage.Category, picture *storage.Upload, dst **string) (*string, error) {
	if picture == nil {
		return nil, nil
	}
	p, err := s.files.Store(ctx, c, *picture)
	if err != nil {
		return nil, apperr.Dependency("store profile picture", err)
	}
	old := *dst
	*dst = &p
	return old, nil
}

func (s *AccountService) rollbackPicture(ctx context.Context, picture *storage.Upload, stored *string) {
	if picture != nil && stored != nil {
		_ = s.files.Delete(ctx, *stored)
	}
}

func (s *AccountService) dropPicture(ctx context.Context, old *string) {
	if old != nil {
		_ = s.files.Delete(ctx, *old)
	}
}
