package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/repairhub/internal/model"
)

func TestReportRepo_StatusCounts(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS n FROM tasks WHERE requester = ? GROUP BY status")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"status", "n"}).AddRow("pending", 2).AddRow("fixing", 1))

	counts, err := NewReportRepo(db).StatusCounts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.StatusPending])
	assert.Equal(t, 1, counts[model.StatusFixing])
	assert.Zero(t, counts[model.StatusFailed])
}

func TestReportRepo_Revenue(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM payments")).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("2500.00"))
	mock.ExpectQuery(regexp.QuoteMeta("DATE_FORMAT(updated_at, '%Y-%m') AS month")).
		WillReturnRows(sqlmock.NewRows([]string{"month", "total"}).
			AddRow("2026-01", "1000.00").AddRow("2026-02", "1500.00"))

	total, months, err := NewReportRepo(db).Revenue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, total, 0.001)
	require.Len(t, months, 2)
	assert.Equal(t, "2026-02", months[1].Month)
	assert.InDelta(t, 1500.0, months[1].Total, 0.001)
}
