package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

type Users struct{ s *Store }

func cloneUser(u *model.User) *model.User {
	out := *u
	out.ProfilePath = strPtr(u.ProfilePath)
	return &out
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, o := range r.s.users {
		if o.Username == u.Username || o.Email == u.Email || o.Phone == u.Phone {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.Username] = cloneUser(u)
	return nil
}

func (r *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *Users) UpdateProfile(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.Username]
	if !ok {
		return repository.ErrUserNotFound
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, o := range r.s.users {
		if o.Username != u.Username && (o.Email == email || o.Phone == u.Phone) {
			return repository.ErrDuplicate
		}
	}
	cur.Name, cur.Email, cur.Phone, cur.Gender = u.Name, email, u.Phone, u.Gender
	cur.ProfilePath = strPtr(u.ProfilePath)
	cur.UpdatedAt = r.s.now()
	return nil
}

func (r *Users) UpdatePassword(_ context.Context, username, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

type Technicians struct{ s *Store }

func cloneTechnician(t *model.Technician) *model.Technician {
	out := *t
	out.ProfilePath = strPtr(t.ProfilePath)
	out.WorkingAreaDistrict = strPtr(t.WorkingAreaDistrict)
	out.WorkingAreaProvince = strPtr(t.WorkingAreaProvince)
	return &out
}

// Add inserts an approved technician directly; tests use it as a fixture.
func (r *Technicians) Add(_ context.Context, t *model.Technician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insert(t)
}

// insert must be called with mu held.
func (r *Technicians) insert(t *model.Technician) error {
	for _, o := range r.s.technicians {
		if o.Username == t.Username || o.Email == t.Email || o.Phone == t.Phone || o.IDCard == t.IDCard {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	t.ID = r.s.nextID()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.technicians[t.ID] = cloneTechnician(t)
	return nil
}

func (r *Technicians) GetByID(_ context.Context, id uint64) (*model.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.technicians[id]
	if !ok {
		return nil, repository.ErrTechnicianNotFound
	}
	return cloneTechnician(t), nil
}

func (r *Technicians) GetByUsername(_ context.Context, username string) (*model.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.technicians {
		if t.Username == username {
			return cloneTechnician(t), nil
		}
	}
	return nil, repository.ErrTechnicianNotFound
}

func (r *Technicians) ListWithCounts(context.Context) ([]model.TechnicianSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.TechnicianSummary{}
	for _, t := range r.s.technicians {
		sum := model.TechnicianSummary{Technician: *cloneTechnician(t)}
		for _, k := range r.s.tasks {
			if !k.AssignedTo(t.Username) {
				continue
			}
			sum.Total++
			switch k.Status {
			case model.StatusFixing:
				sum.Fixing++
			case model.StatusSuccessful:
				sum.Successful++
			case model.StatusFailed:
				sum.Failed++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Technicians) Update(_ context.Context, t *model.Technician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.technicians[t.ID]
	if !ok {
		return repository.ErrTechnicianNotFound
	}
	email := strings.ToLower(strings.TrimSpace(t.Email))
	for _, o := range r.s.technicians {
		if o.ID != t.ID && (o.Email == email || o.Phone == t.Phone) {
			return repository.ErrDuplicate
		}
	}
	cur.FullName, cur.Email, cur.Phone, cur.Age = t.FullName, email, t.Phone, t.Age
	cur.ProfilePath = strPtr(t.ProfilePath)
	cur.Address, cur.District, cur.Province = t.Address, t.District, t.Province
	cur.WorkingAreaDistrict = strPtr(t.WorkingAreaDistrict)
	cur.WorkingAreaProvince = strPtr(t.WorkingAreaProvince)
	cur.BirthDate = t.BirthDate
	cur.UpdatedAt = r.s.now()
	return nil
}

func (r *Technicians) UpdatePassword(_ context.Context, username, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.technicians {
		if t.Username == username {
			t.PasswordHash = hash
			return nil
		}
	}
	return repository.ErrTechnicianNotFound
}

func (r *Technicians) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.technicians[id]; !ok {
		return repository.ErrTechnicianNotFound
	}
	delete(r.s.technicians, id)
	return nil
}

type Registrations struct{ s *Store }

func (r *Registrations) Create(_ context.Context, reg *model.TechnicianRegistration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	for _, o := range r.s.registrations {
		if o.Email == reg.Email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	reg.ID = r.s.nextID()
	reg.Status = model.RegistrationPending
	reg.CreatedAt, reg.UpdatedAt = now, now
	cp := *reg
	r.s.registrations[reg.ID] = &cp
	return nil
}

func (r *Registrations) GetByID(_ context.Context, id uint64) (*model.TechnicianRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, repository.ErrRegistrationNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *Registrations) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, o := range r.s.registrations {
		if o.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registrations) List(context.Context) ([]model.TechnicianRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.TechnicianRegistration{}
	for _, reg := range r.s.registrations {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Registrations) Approve(_ context.Context, id uint64) (*model.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, repository.ErrRegistrationNotFound
	}
	if reg.Status != model.RegistrationPending {
		return nil, repository.ErrRegistrationDecided
	}
	tech := reg.Technician()
	if err := (&Technicians{r.s}).insert(tech); err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationApproved
	reg.UpdatedAt = r.s.now()
	return tech, nil
}

func (r *Registrations) Reject(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	if reg.Status != model.RegistrationPending {
		return repository.ErrRegistrationDecided
	}
	reg.Status = model.RegistrationRejected
	reg.UpdatedAt = r.s.now()
	return nil
}

func (r *Registrations) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.registrations[id]; !ok {
		return repository.ErrRegistrationNotFound
	}
	delete(r.s.registrations, id)
	return nil
}

type Admins struct{ s *Store }

func (r *Admins) Create(_ context.Context, a *model.Admin) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.admins[a.Username]; ok {
		return repository.ErrDuplicate
	}
	a.ID = r.s.nextID()
	a.CreatedAt = r.s.now()
	cp := *a
	r.s.admins[a.Username] = &cp
	return nil
}

func (r *Admins) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.admins[username]
	if !ok {
		return nil, repository.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}
