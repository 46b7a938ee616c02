package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/repairhub/internal/model"
)

// TaskImageRepo stores images attached to a task after creation. Rows are
// append-only.
type TaskImageRepo struct{ DB *sql.DB }

func NewTaskImageRepo(db *sql.DB) *TaskImageRepo { return &TaskImageRepo{DB: db} }

// Add inserts img and fills its ID.
func (r *TaskImageRepo) Add(ctx context.Context, img *model.TaskImage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO task_images (task_id, path, added_by, description) VALUES (?, ?, ?, ?)",
		img.TaskID, img.Path, img.AddedBy, img.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	img.ID = uint64(id)
	return nil
}

// ListByTask returns the images of a task, oldest first.
func (r *TaskImageRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.TaskImage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, task_id, path, added_by, description, created_at FROM task_images WHERE task_id = ? ORDER BY id",
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TaskImage{}
	for rows.Next() {
		var (
			img  model.TaskImage
			desc sql.NullString
		)
		if err := rows.Scan(&img.ID, &img.TaskID, &img.Path, &img.AddedBy, &desc, &img.CreatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			img.Description = &d
		}
		out = append(out, img)
	}
	return out, rows.Err()
}
