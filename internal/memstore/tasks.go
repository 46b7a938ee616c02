package memstore

import (
	"context"
	"slices"
	"sort"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

type Tasks struct{ s *Store }

func cloneTask(t *model.Task) *model.Task {
	out := *t
	out.Assignee = strPtr(t.Assignee)
	out.Images = append([]string{}, t.Images...)
	return &out
}

func (r *Tasks) Create(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	t.ID = r.s.nextID()
	t.Status = model.StatusPending
	t.Assignee = nil
	if t.Images == nil {
		t.Images = []string{}
	}
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *Tasks) GetByID(_ context.Context, id uint64) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *Tasks) List(_ context.Context, f repository.TaskFilter) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Task{}
	for _, t := range r.s.tasks {
		if f.Requester != "" && t.Requester != f.Requester {
			continue
		}
		if f.Assignee != "" && !t.AssignedTo(f.Assignee) {
			continue
		}
		if f.Unassigned && t.Assignee != nil {
			continue
		}
		if len(f.Status) > 0 && !slices.Contains(f.Status, t.Status) {
			continue
		}
		if slices.Contains(f.ExcludeStatus, t.Status) {
			continue
		}
		out = append(out, *cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *Tasks) Claim(_ context.Context, id uint64, technician string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return repository.ErrTaskNotFound
	}
	if t.Status != model.StatusPending || t.Assignee != nil {
		return repository.ErrAlreadyClaimed
	}
	tech := technician
	t.Assignee = &tech
	t.Status = model.StatusAccepted
	t.UpdatedAt = r.s.now()
	return nil
}

func (r *Tasks) CompareAndSetStatus(_ context.Context, id uint64, from, to model.TaskStatus, g repository.StatusGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.Status != from {
		return repository.ErrTaskStateChanged
	}
	if g.Assignee != "" && !t.AssignedTo(g.Assignee) {
		return repository.ErrTaskStateChanged
	}
	if g.Requester != "" && t.Requester != g.Requester {
		return repository.ErrTaskStateChanged
	}
	t.Status = to
	t.UpdatedAt = r.s.now()
	return nil
}

type TaskTypes struct{ s *Store }

func (r *TaskTypes) List(context.Context) ([]model.TaskType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.TaskType, 0, len(r.s.taskTypes))
	for _, tt := range r.s.taskTypes {
		out = append(out, *tt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TaskTypes) GetByID(_ context.Context, id uint64) (*model.TaskType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tt, ok := r.s.taskTypes[id]
	if !ok {
		return nil, repository.ErrTaskTypeNotFound
	}
	out := *tt
	return &out, nil
}

func (r *TaskTypes) Seed(_ context.Context, names []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing := map[string]bool{}
	for _, tt := range r.s.taskTypes {
		existing[tt.Name] = true
	}
	added := 0
	for _, n := range names {
		if existing[n] {
			continue
		}
		id := r.s.nextID()
		r.s.taskTypes[id] = &model.TaskType{ID: id, Name: n}
		existing[n] = true
		added++
	}
	return added, nil
}

type TaskImages struct{ s *Store }

func (r *TaskImages) Add(_ context.Context, img *model.TaskImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	img.ID = r.s.nextID()
	img.CreatedAt = r.s.now()
	cp := *img
	cp.Description = strPtr(img.Description)
	r.s.taskImages = append(r.s.taskImages, &cp)
	return nil
}

func (r *TaskImages) ListByTask(_ context.Context, taskID uint64) ([]model.TaskImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.TaskImage{}
	for _, img := range r.s.taskImages {
		if img.TaskID == taskID {
			cp := *img
			cp.Description = strPtr(img.Description)
			out = append(out, cp)
		}
	}
	return out, nil
}
