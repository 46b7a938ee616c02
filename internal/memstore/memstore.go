// Package memstore is an in-memory implementation of every store the
// service layer depends on. A single mutex guards all tables, so the
// conditional writes behave like the MySQL ones: the check and the write
// happen as one step. It backs `serve --memory` and the service tests.
package memstore

import (
	"sync"
	"time"

	"github.com/iliyamo/repairhub/internal/model"
)

type Store struct {
	mu  sync.Mutex
	seq uint64
	now func() time.Time

	tasks         map[uint64]*model.Task
	taskTypes     map[uint64]*model.TaskType
	taskImages    []*model.TaskImage
	payments      map[uint64]*model.Payment // keyed by payment id
	details       map[uint64]*model.PaymentDetail
	users         map[string]*model.User
	technicians   map[uint64]*model.Technician
	registrations map[uint64]*model.TechnicianRegistration
	admins        map[string]*model.Admin
	sessions      map[string]*model.Session
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		tasks:         map[uint64]*model.Task{},
		taskTypes:     map[uint64]*model.TaskType{},
		payments:      map[uint64]*model.Payment{},
		details:       map[uint64]*model.PaymentDetail{},
		users:         map[string]*model.User{},
		technicians:   map[uint64]*model.Technician{},
		registrations: map[uint64]*model.TechnicianRegistration{},
		admins:        map[string]*model.Admin{},
		sessions:      map[string]*model.Session{},
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// nextID must be called with mu held.
func (s *Store) nextID() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) Tasks() *Tasks                 { return &Tasks{s} }
func (s *Store) TaskTypes() *TaskTypes         { return &TaskTypes{s} }
func (s *Store) TaskImages() *TaskImages       { return &TaskImages{s} }
func (s *Store) Payments() *Payments           { return &Payments{s} }
func (s *Store) Users() *Users                 { return &Users{s} }
func (s *Store) Technicians() *Technicians     { return &Technicians{s} }
func (s *Store) Registrations() *Registrations { return &Registrations{s} }
func (s *Store) Admins() *Admins               { return &Admins{s} }
func (s *Store) Sessions() *Sessions           { return &Sessions{s} }
func (s *Store) Reports() *Reports             { return &Reports{s} }

func strPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
