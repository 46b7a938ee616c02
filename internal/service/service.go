// Package service holds the core operations of the marketplace. Every
// exported method is a function of (identity, parameters) returning a result
// or exactly one apperr kind. Nothing here formats responses or logs.
package service

import (
	"context"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/storage"
)

// TaskStore is satisfied by repository.TaskRepo and memstore.Tasks.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uint64) (*model.Task, error)
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error)
	Claim(ctx context.Context, id uint64, technician string) error
	CompareAndSetStatus(ctx context.Context, id uint64, from, to model.TaskStatus, g repository.StatusGuard) error
}

type TaskTypeStore interface {
	List(ctx context.Context) ([]model.TaskType, error)
	GetByID(ctx context.Context, id uint64) (*model.TaskType, error)
	Seed(ctx context.Context, names []string) (int, error)
}

type TaskImageStore interface {
	Add(ctx context.Context, img *model.TaskImage) error
	ListByTask(ctx context.Context, taskID uint64) ([]model.TaskImage, error)
}

// PaymentStore keeps payments and their detail lines. Confirm must flip the
// payment and its task together or not at all.
type PaymentStore interface {
	GetByTask(ctx context.Context, taskID uint64) (*model.Payment, error)
	GetByID(ctx context.Context, id uint64) (*model.Payment, error)
	Create(ctx context.Context, p *model.Payment) error
	UpdateAmount(ctx context.Context, taskID uint64, amount float64, typ model.PaymentType) error
	SetSlip(ctx context.Context, taskID uint64, path *string) error
	Refuse(ctx context.Context, taskID uint64) error
	Confirm(ctx context.Context, taskID uint64, from model.TaskStatus) error
	Details(ctx context.Context, paymentID uint64) ([]model.PaymentDetail, error)
	GetDetail(ctx context.Context, id uint64) (*model.PaymentDetail, error)
	AddDetail(ctx context.Context, d *model.PaymentDetail) error
	RemoveDetail(ctx context.Context, id uint64) error
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, username, hash string) error
}

type TechnicianStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Technician, error)
	GetByUsername(ctx context.Context, username string) (*model.Technician, error)
	ListWithCounts(ctx context.Context) ([]model.TechnicianSummary, error)
	Update(ctx context.Context, t *model.Technician) error
	UpdatePassword(ctx context.Context, username, hash string) error
	Delete(ctx context.Context, id uint64) error
}

type RegistrationStore interface {
	Create(ctx context.Context, reg *model.TechnicianRegistration) error
	GetByID(ctx context.Context, id uint64) (*model.TechnicianRegistration, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.TechnicianRegistration, error)
	Approve(ctx context.Context, id uint64) (*model.Technician, error)
	Reject(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
}

type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
}

type ReportStore interface {
	StatusCounts(ctx context.Context, requester string) (map[model.TaskStatus]int, error)
	Revenue(ctx context.Context) (float64, []repository.MonthlyRevenue, error)
}

// Stores bundles every persistence port. main fills it from the MySQL
// repositories or from memstore.
type Stores struct {
	Tasks         TaskStore
	TaskTypes     TaskTypeStore
	TaskImages    TaskImageStore
	Payments      PaymentStore
	Users         UserStore
	Technicians   TechnicianStore
	Registrations RegistrationStore
	Admins        AdminStore
	Reports       ReportStore
}

// Services is the full set of core operations handed to the transport layer.
type Services struct {
	Tasks    *TaskService
	Payments *PaymentService
	Media    *MediaService
	Roster   *RosterService
	Reports  *ReportService
	Accounts *AccountService
}

// Options are the settings main copies out of config.Config.
type Options struct {
	BcryptCost        int
	LegacyTransitions bool
}

// New wires every service over the same stores and file store.
func New(st Stores, files storage.FileStore, issuer Issuer, o Options) *Services {
	graph := Canonical
	if o.LegacyTransitions {
		graph = Legacy
	}
	return &Services{
		Tasks:    NewTaskService(st, files, WithGraph(graph)),
		Payments: NewPaymentService(st, files),
		Media:    NewMediaService(st, files),
		Roster:   NewRosterService(st, files, o.BcryptCost),
		Reports:  NewReportService(st),
		Accounts: NewAccountService(st, issuer, files, o.BcryptCost),
	}
}
