package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
)

type Service struct {
	requestRepo repository.RequestRepository
}

func NewService(requestRepo repository.RequestRepository) *Service {
	return &Service{requestRepo: requestRepo}
}

// Dashboard aggregates the requests matching filters into the metrics
// read model. now is injected inside so repeated calls over a stable
// snapshot differ only in open-request handling time.
func (s *Service) Dashboard(ctx context.Context, filters *model.RequestFilters) (*model.Metrics, error) {
	if filters != nil {
		filters.Status = lifecycle.Normalize(filters.Status)
	}
	requests, err := s.requestRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	metrics := Aggregate(requests, time.Now())
	return &metrics, nil
}

// Aggregate folds a request snapshot into Metrics. Pure: no I/O, no
// randomness, map iteration never leaks into output ordering.
func Aggregate(requests []*model.Request, now time.Time) model.Metrics {
	m := model.Metrics{
		RequestsByHour:       make(map[int]int),
		RequestsByDepartment: make(map[string]int),
		RequestsByLanguage:   make(map[string]int),
		SuccessRateByDay:     []model.DaySuccess{},
		StaffSummaries:       []model.StaffActivity{},
	}

	type dayAgg struct {
		total     int
		completed int
	}
	days := make(map[string]*dayAgg)
	staff := make(map[uuid.UUID]*model.StaffActivity)

	var handlingMinutes float64
	var handled int

	for _, req := range requests {
		status := lifecycle.Normalize(req.Status)
		m.TotalCount++

		completed := false
		switch status {
		case model.RequestStatusPending:
			m.PendingCount++
		case model.RequestStatusAccepted:
			m.AcceptedCount++
		case model.RequestStatusFinished, model.RequestStatusEvaluated:
			m.CompletedCount++
			completed = true
		case model.RequestStatusCancelled:
			m.CancelledCount++
		}

		// Handling time: closed requests measure to their finish stamp,
		// open ones to now. Cancelled requests carry no handling signal.
		if completed && req.LastFinishAt != nil {
			handlingMinutes += req.LastFinishAt.Sub(req.RequestedAt).Minutes()
			handled++
		} else if status == model.RequestStatusPending || status == model.RequestStatusAccepted {
			handlingMinutes += now.Sub(req.RequestedAt).Minutes()
			handled++
		}

		day := req.RequestedAt.Format("2006-01-02")
		agg, ok := days[day]
		if !ok {
			agg = &dayAgg{}
			days[day] = agg
		}
		agg.total++
		if completed {
			agg.completed++
		}

		m.RequestsByHour[req.RequestedAt.Hour()]++
		if req.DepartmentID != uuid.Nil {
			m.RequestsByDepartment[req.DepartmentID.String()]++
		}
		if req.Language != "" {
			m.RequestsByLanguage[req.Language]++
		}

		if req.AssigneeID != uuid.Nil {
			activity, ok := staff[req.AssigneeID]
			if !ok {
				activity = &model.StaffActivity{
					AssigneeID:   req.AssigneeID.String(),
					AssigneeName: req.AssigneeName,
				}
				staff[req.AssigneeID] = activity
			}
			activity.Handled++
			if completed {
				activity.Finished++
			}
		}
	}

	m.SuccessRate = rate(m.CompletedCount, m.TotalCount)
	if handled > 0 {
		m.AvgHandlingTimeMinutes = int(math.Floor(handlingMinutes / float64(handled)))
	}

	for day, agg := range days {
		m.SuccessRateByDay = append(m.SuccessRateByDay, model.DaySuccess{
			Date:        day,
			Total:       agg.total,
			Completed:   agg.completed,
			SuccessRate: rate(agg.completed, agg.total),
		})
	}
	sort.Slice(m.SuccessRateByDay, func(i, j int) bool {
		return m.SuccessRateByDay[i].Date < m.SuccessRateByDay[j].Date
	})

	for _, activity := range staff {
		m.StaffSummaries = append(m.StaffSummaries, *activity)
	}
	sort.Slice(m.StaffSummaries, func(i, j int) bool {
		if m.StaffSummaries[i].Handled != m.StaffSummaries[j].Handled {
			return m.StaffSummaries[i].Handled > m.StaffSummaries[j].Handled
		}
		return m.StaffSummaries[i].AssigneeID < m.StaffSummaries[j].AssigneeID
	})

	return m
}

// rate is completed over total as a percentage with two decimals, 0 when
// total is zero.
func rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
