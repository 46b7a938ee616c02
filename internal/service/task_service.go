package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
	"github.com/iliyamo/repairhub/internal/storage"
)

// TaskView is a task with the requester's contact details denormalized in.
type TaskView struct {
	model.Task
	Contact *model.Contact `json:"requester_profile"`
}

// TaskDetail is the full picture of one task for its participants.
type TaskDetail struct {
	TaskView
	TaskType *model.TaskType       `json:"task_type"`
	Payment  *model.Payment        `json:"payment"`
	Details  []model.PaymentDetail `json:"payment_details"`
	Images   []model.TaskImage     `json:"task_images"`
}

// NewTask is the input of TaskService.Create.
type NewTask struct {
	TaskTypeID uint64
	Title      string
	Detail     string
	Address    string
	District   string
	Province   string
	Images     []storage.Upload
}

// TaskService runs the task lifecycle: creation, claiming, status updates
// and cancellation requests.
type TaskService struct {
	tasks    TaskStore
	types    TaskTypeStore
	images   TaskImageStore
	payments PaymentStore
	users    UserStore
	files    storage.FileStore
	graph    Graph
}

// TaskOption customises a TaskService.
type TaskOption func(*TaskService)

// WithGraph replaces the canonical transition graph.
func WithGraph(g Graph) TaskOption {
	return func(s *TaskService) { s.graph = g }
}

func NewTaskService(st Stores, files storage.FileStore, opts ...TaskOption) *TaskService {
	s := &TaskService{
		tasks:    st.Tasks,
		types:    st.TaskTypes,
		images:   st.TaskImages,
		payments: st.Payments,
		users:    st.Users,
		files:    files,
		graph:    Canonical,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores the creation images and inserts a pending, unassigned task.
// Creation images are recorded on Task.Images only.
func (s *TaskService) Create(ctx context.Context, id model.Identity, in NewTask) (*TaskView, error) {
	if id.Role != model.RoleUser {
		return nil, apperr.Forbidden("only users create tasks")
	}
	t := &model.Task{
		Requester:  id.Subject,
		TaskTypeID: in.TaskTypeID,
		Title:      strings.TrimSpace(in.Title),
		Detail:     strings.TrimSpace(in.Detail),
		Address:    strings.TrimSpace(in.Address),
		District:   strings.TrimSpace(in.District),
		Province:   strings.TrimSpace(in.Province),
	}
	if t.Title == "" || t.Address == "" || t.District == "" || t.Province == "" {
		return nil, apperr.Validation("title, address, district and province are required")
	}
	if _, err := s.types.GetByID(ctx, in.TaskTypeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("unknown task type")
		}
		return nil, apperr.Dependency("load task type", err)
	}

	stored := make([]string, 0, len(in.Images))
	for _, up := range in.Images {
		p, err := s.files.Store(ctx, storage.TaskImage, up)
		if err != nil {
			s.discard(ctx, stored...)
			return nil, apperr.Dependency("store task image", err)
		}
		stored = append(stored, p)
	}
	t.Images = stored

	if err := s.tasks.Create(ctx, t); err != nil {
		s.discard(ctx, stored...)
		return nil, apperr.Dependency("create task", err)
	}
	return s.view(ctx, t)
}

// Get returns one task to a participant. Technicians may also look at a
// task that is still open for claiming.
func (s *TaskService) Get(ctx context.Context, id model.Identity, taskID uint64) (*TaskView, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canView(id, t) {
		return nil, apperr.Forbidden("not a participant of this task")
	}
	return s.view(ctx, t)
}

// Detail is Get plus task type, payment, payment lines and uploaded images.
func (s *TaskService) Detail(ctx context.Context, id model.Identity, taskID uint64) (*TaskDetail, error) {
	v, err := s.Get(ctx, id, taskID)
	if err != nil {
		return nil, err
	}
	d := &TaskDetail{TaskView: *v, Details: []model.PaymentDetail{}}
	if tt, err := s.types.GetByID(ctx, v.TaskTypeID); err == nil {
		d.TaskType = tt
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Dependency("load task type", err)
	}

	p, err := s.payments.GetByTask(ctx, taskID)
	switch {
	case err == nil:
		d.Payment = p
		if d.Details, err = s.payments.Details(ctx, p.ID); err != nil {
			return nil, apperr.Dependency("list payment details", err)
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, apperr.Dependency("load payment", err)
	}

	if d.Images, err = s.images.ListByTask(ctx, taskID); err != nil {
		return nil, apperr.Dependency("list task images", err)
	}
	return d, nil
}

// ListAvailable returns pending, unassigned tasks, newest first.
func (s *TaskService) ListAvailable(ctx context.Context, id model.Identity) ([]TaskView, error) {
	if id.Role != model.RoleTechnician {
		return nil, apperr.Forbidden("only technicians browse open tasks")
	}
	return s.list(ctx, repository.TaskFilter{
		Status:     []model.TaskStatus{model.StatusPending},
		Unassigned: true,
	})
}

// ListMine returns the caller's own tasks: created ones for a user, held
// ones for a technician.
func (s *TaskService) ListMine(ctx context.Context, id model.Identity) ([]TaskView, error) {
	switch id.Role {
	case model.RoleUser:
		return s.list(ctx, repository.TaskFilter{Requester: id.Subject})
	case model.RoleTechnician:
		return s.list(ctx, repository.TaskFilter{
			Assignee:      id.Subject,
			ExcludeStatus: []model.TaskStatus{model.StatusPending},
		})
	}
	return nil, apperr.Forbidden("admins have no own tasks")
}

// Claim makes the calling technician the assignee of a pending task. The
// store arbitrates concurrent claims; the loser gets a Conflict.
func (s *TaskService) Claim(ctx context.Context, id model.Identity, taskID uint64) (*TaskView, error) {
	if id.Role != model.RoleTechnician {
		return nil, apperr.Forbidden("only technicians claim tasks")
	}
	if err := s.tasks.Claim(ctx, taskID, id.Subject); err != nil {
		return nil, apperr.Dependency("claim task", err)
	}
	return s.reload(ctx, taskID)
}

// UpdateStatus advances a task held by the calling technician. Moving to
// successful goes through the payment confirmation so both records change
// together.
func (s *TaskService) UpdateStatus(ctx context.Context, id model.Identity, taskID uint64, target model.TaskStatus) (*TaskView, error) {
	if !target.Valid() {
		return nil, &apperr.TransitionError{To: string(target)}
	}
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if id.Role != model.RoleTechnician || !t.AssignedTo(id.Subject) {
		return nil, apperr.Forbidden("only the assigned technician may update this task")
	}
	if err := s.graph.Check(t.Status, target); err != nil {
		return nil, err
	}

	if target == model.StatusSuccessful && t.Status == model.StatusPayment {
		if _, err := s.payments.GetByTask(ctx, taskID); err != nil {
			return nil, apperr.Dependency("load payment", err)
		}
		err = s.payments.Confirm(ctx, taskID, t.Status)
	} else {
		err = s.tasks.CompareAndSetStatus(ctx, taskID, t.Status, target, repository.StatusGuard{Assignee: id.Subject})
	}
	if err != nil {
		return nil, apperr.Dependency("update task status", err)
	}
	return s.reload(ctx, taskID)
}

// RequestCancel lets the requester ask for cancellation of an accepted task.
func (s *TaskService) RequestCancel(ctx context.Context, id model.Identity, taskID uint64) (*TaskView, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !id.Is(model.RoleUser, t.Requester) {
		return nil, apperr.Forbidden("only the requester may cancel this task")
	}
	if err := s.graph.Check(t.Status, model.StatusRequestCanceling); err != nil {
		return nil, err
	}
	err = s.tasks.CompareAndSetStatus(ctx, taskID, t.Status, model.StatusRequestCanceling,
		repository.StatusGuard{Requester: id.Subject})
	if err != nil {
		return nil, apperr.Dependency("request cancel", err)
	}
	return s.reload(ctx, taskID)
}

// TaskTypes lists the repair categories, sorted by name.
func (s *TaskService) TaskTypes(ctx context.Context) ([]model.TaskType, error) {
	types, err := s.types.List(ctx)
	return types, apperr.Dependency("list task types", err)
}

func (s *TaskService) load(ctx context.Context, taskID uint64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Dependency("load task", err)
	}
	return t, nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*TaskView, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

// view attaches the requester's current contact details. A requester whose
// account is gone leaves Contact nil.
func (s *TaskService) view(ctx context.Context, t *model.Task) (*TaskView, error) {
	v := &TaskView{Task: *t}
	u, err := s.users.GetByUsername(ctx, t.Requester)
	switch {
	case err == nil:
		v.Contact = u.Contact()
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, apperr.Dependency("load requester", err)
	}
	return v, nil
}

func (s *TaskService) list(ctx context.Context, f repository.TaskFilter) ([]TaskView, error) {
	tasks, err := s.tasks.List(ctx, f)
	if err != nil {
		return nil, apperr.Dependency("list tasks", err)
	}
	contacts := map[string]*model.Contact{}
	out := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		c, ok := contacts[tasks[i].Requester]
		if !ok {
			v, err := s.view(ctx, &tasks[i])
			if err != nil {
				return nil, err
			}
			c = v.Contact
			contacts[tasks[i].Requester] = c
		}
		out = append(out, TaskView{Task: tasks[i], Contact: c})
	}
	return out, nil
}

func (s *TaskService) discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		_ = s.files.Delete(ctx, p)
	}
}

func canView(id model.Identity, t *model.Task) bool {
	switch id.Role {
	case model.RoleAdmin:
		return true
	case model.RoleUser:
		return t.Requester == id.Subject
	case model.RoleTechnician:
		return t.AssignedTo(id.Subject) || (t.Assignee == nil && t.Status == model.StatusPending)
	}
	return false
}
