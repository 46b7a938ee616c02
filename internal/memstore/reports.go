package memstore

import (
	"context"
	"sort"

	"github.com/iliyamo/repairhub/internal/model"
	"github.com/iliyamo/repairhub/internal/repository"
)

type Reports struct{ s *Store }

func (r *Reports) StatusCounts(_ context.Context, requester string) (map[model.TaskStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[model.TaskStatus]int{}
	for _, t := range r.s.tasks {
		if requester == "" || t.Requester == requester {
			out[t.Status]++
		}
	}
	return out, nil
}

func (r *Reports) Revenue(context.Context) (float64, []repository.MonthlyRevenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total float64
	byMonth := map[string]float64{}
	for _, p := range r.s.payments {
		if !p.Confirmed() {
			continue
		}
		total += p.Amount
		byMonth[p.UpdatedAt.Format("2006-01")] += p.Amount
	}
	months := make([]repository.MonthlyRevenue, 0, len(byMonth))
	for m, v := range byMonth {
		months = append(months, repository.MonthlyRevenue{Month: m, Total: v})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return total, months, nil
}
