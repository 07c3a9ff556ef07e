package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/etrack-api/internal/model"
)

func snapshotRequest(status model.RequestStatus, requestedAt time.Time) *model.Request {
	req := &model.Request{
		Kind:        model.RequestKindPatientEscort,
		Status:      status,
		RequestedAt: requestedAt,
	}
	req.ID = uuid.New()
	return req
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, time.Now())

	assert.Zero(t, got.TotalCount)
	assert.Zero(t, got.SuccessRate)
	assert.Zero(t, got.AvgHandlingTimeMinutes)
	assert.Empty(t, got.SuccessRateByDay)
	assert.Empty(t, got.StaffSummaries)
}

func TestAggregateCountsAndSuccessRate(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	base := now.Add(-2 * time.Hour)

	finish := base.Add(30 * time.Minute)
	a := snapshotRequest(model.RequestStatusFinished, base)
	a.LastFinishAt = &finish
	b := snapshotRequest(model.RequestStatusFinished, base)
	b.LastFinishAt = &finish
	c := snapshotRequest(model.RequestStatusPending, base)

	got := Aggregate([]*model.Request{a, b, c}, now)

	assert.Equal(t, 3, got.TotalCount)
	assert.Equal(t, 1, got.PendingCount)
	assert.Equal(t, 2, got.CompletedCount)
	assert.Equal(t, 0, got.CancelledCount)
	assert.Equal(t, 66.67, got.SuccessRate)
}

func TestAggregateCompletedAliasAndEvaluated(t *testing.T) {
	now := time.Now()
	reqs := []*model.Request{
		snapshotRequest(model.RequestStatusCompleted, now.Add(-time.Hour)),
		snapshotRequest(model.RequestStatusEvaluated, now.Add(-time.Hour)),
		snapshotRequest(model.RequestStatusCancelled, now.Add(-time.Hour)),
	}

	got := Aggregate(reqs, now)
	assert.Equal(t, 2, got.CompletedCount)
	assert.Equal(t, 1, got.CancelledCount)
	assert.Equal(t, 66.67, got.SuccessRate)
}

func TestAggregateHandlingTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// Closed after 40 minutes.
	closed := snapshotRequest(model.RequestStatusFinished, now.Add(-time.Hour))
	finish := closed.RequestedAt.Add(40 * time.Minute)
	closed.LastFinishAt = &finish

	// Still open for 20 minutes, measured against now.
	open := snapshotRequest(model.RequestStatusAccepted, now.Add(-20*time.Minute))

	got := Aggregate([]*model.Request{closed, open}, now)
	assert.Equal(t, 30, got.AvgHandlingTimeMinutes)
}

func TestAggregateDaySeriesSorted(t *testing.T) {
	now := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)

	day1 := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)

	finished := snapshotRequest(model.RequestStatusFinished, day2)
	stamp := day2.Add(15 * time.Minute)
	finished.LastFinishAt = &stamp

	// Later day listed first on input; output must still sort ascending.
	got := Aggregate([]*model.Request{
		finished,
		snapshotRequest(model.RequestStatusCancelled, day1),
		snapshotRequest(model.RequestStatusPending, day1),
	}, now)

	require.Len(t, got.SuccessRateByDay, 2)
	assert.Equal(t, "2026-03-10", got.SuccessRateByDay[0].Date)
	assert.Equal(t, 2, got.SuccessRateByDay[0].Total)
	assert.Equal(t, 0.0, got.SuccessRateByDay[0].SuccessRate)
	assert.Equal(t, "2026-03-11", got.SuccessRateByDay[1].Date)
	assert.Equal(t, 100.0, got.SuccessRateByDay[1].SuccessRate)
}

func TestAggregateBreakdowns(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dept := uuid.New()
	assignee := uuid.New()

	translator := snapshotRequest(model.RequestStatusFinished, now.Add(9*time.Hour))
	translator.Kind = model.RequestKindTranslator
	translator.Language = "km"
	translator.DepartmentID = dept
	translator.AssigneeID = assignee
	translator.AssigneeName = "P. Dara"
	stamp := translator.RequestedAt.Add(10 * time.Minute)
	translator.LastFinishAt = &stamp

	escort := snapshotRequest(model.RequestStatusPending, now.Add(9*time.Hour))
	escort.DepartmentID = dept
	escort.AssigneeID = assignee
	escort.AssigneeName = "P. Dara"

	got := Aggregate([]*model.Request{translator, escort}, now.Add(10*time.Hour))

	assert.Equal(t, 2, got.RequestsByHour[9])
	assert.Equal(t, 2, got.RequestsByDepartment[dept.String()])
	assert.Equal(t, 1, got.RequestsByLanguage["km"])

	require.Len(t, got.StaffSummaries, 1)
	assert.Equal(t, "P. Dara", got.StaffSummaries[0].AssigneeName)
	assert.Equal(t, 2, got.StaffSummaries[0].Handled)
	assert.Equal(t, 1, got.StaffSummaries[0].Finished)
}

func TestAggregateDeterministic(t *testing.T) {
	now := time.Now()
	reqs := []*model.Request{
		snapshotRequest(model.RequestStatusPending, now.Add(-time.Hour)),
		snapshotRequest(model.RequestStatusCancelled, now.Add(-2*time.Hour)),
		snapshotRequest(model.RequestStatusAccepted, now.Add(-3*time.Hour)),
	}

	first := Aggregate(reqs, now)
	second := Aggregate([]*model.Request{reqs[2], reqs[0], reqs[1]}, now)
	assert.Equal(t, first, second)
}
