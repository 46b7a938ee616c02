package service

import (
	"context"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

// Dashboard is the admin overview of task counts.
type Dashboard struct {
	ByStatus  map[model.TaskStatus]int `json:"by_status"`
	Total     int                      `json:"total"`
	Pending   int                      `json:"pending"`
	Ongoing   int                      `json:"ongoing"`
	Payment   int                      `json:"payment"`
	Completed int                      `json:"completed"`
	Failed    int                      `json:"failed"`
	Cancelled int                      `json:"cancelled"`
}

// Revenue is the sum of confirmed payments overall and per month.
type Revenue struct {
	Total   float64                     `json:"total"`
	Monthly []repository.MonthlyRevenue `json:"monthly"`
}

// UserSummary is a requester's own counts and most recent tasks.
type UserSummary struct {
	Pending    int          `json:"pending"`
	Accepted   int          `json:"accepted"`
	Fixing     int          `json:"fixing"`
	Successful int          `json:"successful"`
	Recent     []model.Task `json:"recent"`
}

const recentTasks = 5

type ReportService struct {
	reports ReportStore
	tasks   TaskStore
}

func NewReportService(st Stores) *ReportService {
	return &ReportService{reports: st.Reports, tasks: st.Tasks}
}

func (s *ReportService) Dashboard(ctx context.Context, id model.Identity) (*Dashboard, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	counts, err := s.reports.StatusCounts(ctx, "")
	if err != nil {
		return nil, apperr.Dependency("count tasks", err)
	}
	d := &Dashboard{ByStatus: map[model.TaskStatus]int{}}
	for _, st := range model.Statuses {
		d.ByStatus[st] = counts[st]
		d.Total += counts[st]
	}
	d.Pending = counts[model.StatusPending]
	d.Ongoing = counts[model.StatusAccepted] + counts[model.StatusFixing]
	d.Payment = counts[model.StatusPayment]
	d.Completed = counts[model.StatusSuccessful]
	d.Failed = counts[model.StatusFailed]
	d.Cancelled = counts[model.StatusCancelled] + counts[model.StatusRequestCanceling]
	return d, nil
}

func (s *ReportService) Revenue(ctx context.Context, id model.Identity) (*Revenue, error) {
	if err := adminOnly(id); err != nil {
		return nil, err
	}
	total, months, err := s.reports.Revenue(ctx)
	if err != nil {
		return nil, apperr.Dependency("sum revenue", err)
	}
	return &Revenue{Total: total, Monthly: months}, nil
}

// UserSummary backs the requester's own dashboard.
func (s *ReportService) UserSummary(ctx context.Context, id model.Identity) (*UserSummary, error) {
	if id.Role != model.RoleUser {
		return nil, apperr.Forbidden("user only")
	}
	counts, err := s.reports.StatusCounts(ctx, id.Subject)
	if err != nil {
		return nil, apperr.Dependency("count tasks", err)
	}
	recent, err := s.tasks.List(ctx, repository.TaskFilter{Requester: id.Subject, Limit: recentTasks})
	if err != nil {
		return nil, apperr.Dependency("list recent tasks", err)
	}
	return &UserSummary{
		Pending:    counts[model.StatusPending],
		Accepted:   counts[model.StatusAccepted],
		Fixing:     counts[model.StatusFixing],
		Successful: counts[model.StatusSuccessful],
		Recent:     recent,
	}, nil
}
