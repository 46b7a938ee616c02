package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/repairhub/internal/model"
)

// MonthlyRevenue is the sum of confirmed payments in one calendar month.
type MonthlyRevenue struct {
	Month string  `json:"month" db:"month"` // YYYY-MM
	Total float64 `json:"total" db:"total"`
}

// ReportRepo runs the read-only aggregates behind the dashboards.
type ReportRepo struct{ db *sqlx.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: sqlx.NewDb(db, "mysql")} }

type statusCount struct {
	Status model.TaskStatus `db:"status"`
	Count  int              `db:"n"`
}

// StatusCounts groups tasks by status. A non-empty requester restricts the
// count to that user's tasks.
func (r *ReportRepo) StatusCounts(ctx context.Context, requester string) (map[model.TaskStatus]int, error) {
	q := "SELECT status, COUNT(*) AS n FROM tasks"
	var args []any
	if requester != "" {
		q += " WHERE requester = ?"
		args = append(args, requester)
	}
	q += " GROUP BY status"

	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make(map[model.TaskStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// Revenue sums successful payments overall and per month, oldest month first.
func (r *ReportRepo) Revenue(ctx context.Context) (float64, []MonthlyRevenue, error) {
	var total float64
	if err := r.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'successful'"); err != nil {
		return 0, nil, err
	}
	months := []MonthlyRevenue{}
	err := r.db.SelectContext(ctx, &months, `SELECT DATE_FORMAT(updated_at, '%Y-%m') AS month, SUM(amount) AS total
		FROM payments WHERE status = 'successful'
		GROUP BY month ORDER BY month`)
	if err != nil {
		return 0, nil, err
	}
	return total, months, nil
}
