package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var taskCols = []string{"id", "requester", "assignee", "status", "task_type_id", "title", "detail",
	"address", "district", "province", "images", "created_at", "updated_at"}

func TestTaskRepo_Claim(t *testing.T) {
	claimSQL := regexp.QuoteMeta("UPDATE tasks SET assignee = ?, status = 'accepted' WHERE id = ? AND status = 'pending' AND assignee IS NULL")

	t.Run("wins", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(claimSQL).WithArgs("tech-a", 7).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewTaskRepo(db).Claim(context.Background(), 7, "tech-a"))
	})

	t.Run("already claimed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(claimSQL).WithArgs("tech-b", 7).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM tasks WHERE id = ?")).WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		err := NewTaskRepo(db).Claim(context.Background(), 7, "tech-b")
		assert.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("missing task", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(claimSQL).WithArgs("tech-b", 9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM tasks WHERE id = ?")).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		err := NewTaskRepo(db).Claim(context.Background(), 9, "tech-b")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("driver failure", func(t *testing.T) {
		db, mock := newMock(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(claimSQL).WillReturnError(boom)

		err := NewTaskRepo(db).Claim(context.Background(), 1, "tech-a")
		assert.ErrorIs(t, err, boom)
	})
}

func TestTaskRepo_CompareAndSetStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTaskRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = ? WHERE id = ? AND status = ? AND assignee = ?")).
		WithArgs("fixing", 3, "accepted", "tech-a").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CompareAndSetStatus(context.Background(), 3, model.StatusAccepted, model.StatusFixing,
		StatusGuard{Assignee: "tech-a"}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks SET status = ? WHERE id = ? AND status = ? AND requester = ?")).
		WithArgs("request_canceling", 3, "accepted", "alice").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.CompareAndSetStatus(context.Background(), 3, model.StatusAccepted, model.StatusRequestCanceling,
		StatusGuard{Requester: "alice"})
	assert.ErrorIs(t, err, ErrTaskStateChanged)
}

func TestTaskRepo_CreateAndGet(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs("alice", 2, "AC repair", "", "12 Main St", "D", "P", []byte(`["tasks/images/a.jpg"]`)).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = ?")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(11, "alice", nil, "pending", 2, "AC repair", "",
			"12 Main St", "D", "P", []byte(`["tasks/images/a.jpg"]`), now, now))

	task := &model.Task{Requester: "alice", TaskTypeID: 2, Title: "AC repair", Address: "12 Main St",
		District: "D", Province: "P", Images: []string{"tasks/images/a.jpg"}}
	require.NoError(t, NewTaskRepo(db).Create(context.Background(), task))

	assert.Equal(t, uint64(11), task.ID)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Nil(t, task.Assignee)
	assert.Equal(t, []string{"tasks/images/a.jpg"}, task.Images)
	assert.Equal(t, now, task.CreatedAt)
}

func TestTaskRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = ?")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(taskCols))

	_, err := NewTaskRepo(db).GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskRepo_ListBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM tasks WHERE assignee = ? AND status NOT IN (?) ORDER BY created_at DESC, id DESC LIMIT ?")).
		WithArgs("tech-a", "pending", 5).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(2, "bob", "tech-a", "fixing", 1, "Fridge", "", "a", "d", "p", []byte(`[]`), now, now))

	tasks, err := NewTaskRepo(db).List(context.Background(), TaskFilter{
		Assignee:      "tech-a",
		ExcludeStatus: []model.TaskStatus{model.StatusPending},
		Limit:         5,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].Assignee)
	assert.Equal(t, "tech-a", *tasks[0].Assignee)
	assert.Equal(t, model.StatusFixing, tasks[0].Status)
}
