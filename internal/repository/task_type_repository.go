package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/repairhub/internal/model"
)

// TaskTypeRepo reads and seeds repair categories.
type TaskTypeRepo struct{ db *sqlx.DB }

func NewTaskTypeRepo(db *sql.DB) *TaskTypeRepo { return &TaskTypeRepo{db: sqlx.NewDb(db, "mysql")} }

// List returns all task types sorted by name.
func (r *TaskTypeRepo) List(ctx context.Context) ([]model.TaskType, error) {
	out := []model.TaskType{}
	err := r.db.SelectContext(ctx, &out, "SELECT id, name FROM task_types ORDER BY name")
	return out, err
}

// GetByID returns one task type or ErrTaskTypeNotFound.
func (r *TaskTypeRepo) GetByID(ctx context.Context, id uint64) (*model.TaskType, error) {
	var tt model.TaskType
	err := r.db.GetContext(ctx, &tt, "SELECT id, name FROM task_types WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

// Seed inserts the names that do not exist yet and returns how many were
// added. Existing rows are kept because tasks reference them.
func (r *TaskTypeRepo) Seed(ctx context.Context, names []string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	for _, n := range names {
		res, err := tx.ExecContext(ctx, "INSERT IGNORE INTO task_types (name) VALUES (?)", n)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, tx.Commit()
}
