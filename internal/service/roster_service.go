package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/storage"
	"github.com/iliyamo/repairhub/internal/utils"
)

// Signup is a technician's self-service application.
type Signup struct {
	Username  string
	Password  string
	FullName  string
	Email     string
	Phone     string
	Age       int
	IDCard    string
	Address   string
	District  string
	Province  string
	BirthDate time.Time
}

// TechnicianUpdate carries editable technician fields. Empty strings and a
// zero age or date leave the current value.
type TechnicianUpdate struct {
	FullName            string
	Email               string
	Phone               string
	Age                 int
	Address             string
	District            string
	Province            string
	WorkingAreaDistrict *string
	WorkingAreaProvince *string
	BirthDate           time.Time
}

// Roster is the admin overview of signups and active technicians.
type Roster struct {
	Registrations []model.TechnicianRegistration `json:"registrations"`
	Technicians   []model.TechnicianSummary      `json:"technicians"`
}

// RosterService onboards technicians and lets admins manage them.
type RosterService struct {
	regs       RegistrationStore
	techs      TechnicianStore
	files      storage.FileStore
	bcryptCost int
}

func NewRosterService(st Stores, files storage.FileStore, bcryptCost int) *RosterService {
	return &RosterService{regs: st.Registrations, techs: st.Technicians, files: files, bcryptCost: bcryptCost}
}

// Register records a pending application with its id card image.
func (s *RosterService) Register(ctx context.Context, in Signup, idCard storage.Upload) (*model.TechnicianRegistration, error) {
	in.Email = normEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" || in.Address == "" || in.District == "" || in.Province == "" || in.BirthDate.IsZero() {
		return nil, apperr.Validation("full name, address, district, province and birth date are required")
	}
	if err := firstErr(checkUsername(in.Username), checkEmail(in.Email), checkPhone(in.Phone),
		checkIDCard(in.IDCard), checkAge(in.Age)); err != nil {
		return nil, err
	}
	taken, err := s.regs.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperr.Dependency("check registration email", err)
	}
	if taken {
		return nil, apperr.Conflict("email already registered")
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Dependency("hash password", err)
	}

	path, err := s.files.Store(ctx, storage.IDCardImage, idCard)
	if err != nil {
		return nil, apperr.Dependency("store id card", err)
	}
	reg := &model.TechnicianRegistration{
		Username:        in.Username,
		PasswordHash:    hash,
		FullName:        in.FullName,
		Email:           in.Email,
		Phone:           in.Phone,
		Age:             in.Age,
		IDCard:          in.IDCard,
		IDCardImagePath: path,
		Address:         in.Address,
		District:        in.District,
		Province:        in.Province,
		BirthDate:       in.BirthDate,
	}
	if err := s.regs.Create(ctx, reg); err != nil {
		_ = s.files.Delete(ctx, path)
		return nil, apperr.Dependency("create registration", err)
	}
	return reg, nil
}

// Approve promotes a pending registration into an active technician.
func (s *RosterService) Approve(ctx context.Context, id model.Identity, regID uint64) (*model.Technician, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	t, err := s.regs.Approve(ctx, regID)
	if err != nil {
		return nil, apperr.Dependency("approve registration", err)
	}
	return t, nil
}

// Reject closes a pending registration without creating a technician.
func (s *RosterService) Reject(ctx context.Context, id model.Identity, regID uint64) error {
	if err := adminOnly(id); err != nil {
		return err
	}
	return apperr.Dependency("reject registration", s.regs.Reject(ctx, regID))
}

// DeleteRegistration removes a registration and its id card image.
func (s *RosterService) DeleteRegistration(ctx context.Context, id model.Identity, regID uint64) error {
	if err := adminOnly(id); err != nil {
		return err
	}
	reg, err := s.regs.GetByID(ctx, regID)
	if err != nil {
		return apperr.Dependency("load registration", err)
	}
	if err := s.regs.Delete(ctx, regID); err != nil {
		return apperr.Dependency("delete registration", err)
	}
	// Approved technicians keep pointing at the same id card file.
	if reg.Status != model.RegistrationApproved && reg.IDCardImagePath != "" {
		_ = s.files.Delete(ctx, reg.IDCardImagePath)
	}
	return nil
}

func (s *RosterService) ListRoster(ctx context.Context, id model.Identity) (*Roster, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	regs, err := s.regs.List(ctx)
	if err != nil {
		return nil, apperr.Dependency("list registrations", err)
	}
	techs, err := s.techs.ListWithCounts(ctx)
	if err != nil {
		return nil, apperr.Dependency("list technicians", err)
	}
	return &Roster{Registrations: regs, Technicians: techs}, nil
}

func (s *RosterService) GetTechnician(ctx context.Context, id model.Identity, techID uint64) (*model.Technician, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	t, err := s.techs.GetByID(ctx, techID)
	if err != nil {
		return nil, apperr.Dependency("load technician", err)
	}
	return t, nil
}

func (s *RosterService) UpdateTechnician(ctx context.Context, id model.Identity, techID uint64, in TechnicianUpdate) (*model.Technician, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	t, err := s.techs.GetByID(ctx, techID)
	if err != nil {
		return nil, apperr.Dependency("load technician", err)
	}
	if err := applyTechnicianUpdate(t, in); err != nil {
		return nil, err
	}
	if err := s.techs.Update(ctx, t); err != nil {
		return nil, apperr.Dependency("update technician", err)
	}
	return t, nil
}

// DeleteTechnician removes the active record. Tasks keep the handle.
func (s *RosterService) DeleteTechnician(ctx context.Context, id model.Identity, techID uint64) error {
	if err := adminOnly(id); err != nil {
		return err
	}
	return apperr.Dependency("delete technician", s.techs.Delete(ctx, techID))
}

func applyTechnicianUpdate(t *model.Technician, in TechnicianUpdate) error {
	if v := strings.TrimSpace(in.FullName); v != "" {
		t.FullName = v
	}
	if in.Email != "" {
		t.Email = normEmail(in.Email)
	}
	if in.Phone != "" {
		t.Phone = in.Phone
	}
	if in.Age != 0 {
		t.Age = in.Age
	}
	if in.Address != "" {
		t.Address = in.Address
	}
	if in.District != "" {
		t.District = in.District
	}
	if in.Province != "" {
		t.Province = in.Province
	}
	if in.WorkingAreaDistrict != nil {
		t.WorkingAreaDistrict = in.WorkingAreaDistrict
	}
	if in.WorkingAreaProvince != nil {
		t.WorkingAreaProvince = in.WorkingAreaProvince
	}
	if !in.BirthDate.IsZero() {
		t.BirthDate = in.BirthDate
	}
	return firstErr(checkEmail(t.Email), checkPhone(t.Phone), checkAge(t.Age))
}

func adminOnly(id model.Identity) error {
	if id.Role != model.RoleAdmin {
		return apperr.Forbidden("admin only")
	}
	return nil
}
