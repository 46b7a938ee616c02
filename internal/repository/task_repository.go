package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/iliyamo/repairhub/internal/model"
)

// TaskFilter selects tasks for List. Zero values mean "no constraint".
// Results are always ordered newest first.
type TaskFilter struct {
	Requester     string
	Assignee      string
	Unassigned    bool
	Status        []model.TaskStatus
	ExcludeStatus []model.TaskStatus
	Limit         int
}

// StatusGuard narrows a conditional status write to the holder of the task.
// Exactly one of the fields is normally set.
type StatusGuard struct {
	Assignee  string
	Requester string
}

// TaskRepo persists tasks. Every state change is a single conditional
// UPDATE; nothing here reads a row and writes it back.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskColumns = "id, requester, assignee, status, task_type_id, title, detail, address, district, province, images, created_at, updated_at"

// Create inserts a pending, unassigned task and fills ID and timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	if t.Images == nil {
		t.Images = []string{}
	}
	images, err := json.Marshal(t.Images)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tasks (requester, status, task_type_id, title, detail, address, district, province, images)
		 VALUES (?, 'pending', ?, ?, ?, ?, ?, ?, ?)`,
		t.Requester, t.TaskTypeID, t.Title, t.Detail, t.Address, t.District, t.Province, images)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// GetByID loads one task or returns ErrTaskNotFound.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (*model.Task, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// List returns tasks matching f, newest first.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	var (
		where []string
		args  []any
	)
	if f.Requester != "" {
		where = append(where, "requester = ?")
		args = append(args, f.Requester)
	}
	if f.Assignee != "" {
		where = append(where, "assignee = ?")
		args = append(args, f.Assignee)
	}
	if f.Unassigned {
		where = append(where, "assignee IS NULL")
	}
	if len(f.Status) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Status))+")")
		for _, s := range f.Status {
			args = append(args, s)
		}
	}
	if len(f.ExcludeStatus) > 0 {
		where = append(where, "status NOT IN ("+placeholders(len(f.ExcludeStatus))+")")
		for _, s := range f.ExcludeStatus {
			args = append(args, s)
		}
	}

	q := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Claim assigns technician to a pending, unassigned task in one conditional
// write. When the write matches nothing the task is re-read only to tell a
// missing task (ErrTaskNotFound) from a lost race (ErrAlreadyClaimed).
func (r *TaskRepo) Claim(ctx context.Context, id uint64, technician string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE tasks SET assignee = ?, status = 'accepted'
		 WHERE id = ? AND status = 'pending' AND assignee IS NULL`,
		technician, id)
	if err != nil {
		return err
	}
	err = affected(res, ErrAlreadyClaimed)
	if !errors.Is(err, ErrAlreadyClaimed) {
		return err
	}
	var one int
	switch qerr := r.DB.QueryRowContext(ctx, "SELECT 1 FROM tasks WHERE id = ?", id).Scan(&one); {
	case errors.Is(qerr, sql.ErrNoRows):
		return ErrTaskNotFound
	case qerr != nil:
		return qerr
	}
	return ErrAlreadyClaimed
}

// CompareAndSetStatus moves the task from one status to another only if it
// is still at from and still held by the guard's party.
func (r *TaskRepo) CompareAndSetStatus(ctx context.Context, id uint64, from, to model.TaskStatus, g StatusGuard) error {
	q := "UPDATE tasks SET status = ? WHERE id = ? AND status = ?"
	args := []any{to, id, from}
	if g.Assignee != "" {
		q += " AND assignee = ?"
		args = append(args, g.Assignee)
	}
	if g.Requester != "" {
		q += " AND requester = ?"
		args = append(args, g.Requester)
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	return affected(res, ErrTaskStateChanged)
}

type scanner interface{ Scan(dest ...any) error }

func scanTask(s scanner) (*model.Task, error) {
	var (
		t        model.Task
		assignee sql.NullString
		images   []byte
	)
	err := s.Scan(&t.ID, &t.Requester, &assignee, &t.Status, &t.TaskTypeID, &t.Title, &t.Detail,
		&t.Address, &t.District, &t.Province, &images, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if assignee.Valid {
		a := assignee.String
		t.Assignee = &a
	}
	t.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &t.Images); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
