package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
	"github.com/hospitalops/etrack-api/internal/service/audit"
	"github.com/hospitalops/etrack-api/internal/service/event"
)

type fakeRequestRepo struct {
	requests map[uuid.UUID]*model.Request
}

func (f *fakeRequestRepo) Create(_ context.Context, req *model.Request) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) Get(_ context.Context, id uuid.UUID) (*model.Request, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) List(_ context.Context, _ *model.RequestFilters) ([]*model.Request, error) {
	out := make([]*model.Request, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRequestRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.RequestStatus, lastFinishAt *time.Time) error {
	req, ok := f.requests[id]
	if !ok || req.Status != from {
		return repository.ErrStatusConflict
	}
	req.Status = to
	if lastFinishAt != nil {
		req.LastFinishAt = lastFinishAt
	}
	return nil
}

type fakeEvalRepo struct {
	requests *fakeRequestRepo
	byReq    map[uuid.UUID]*model.EvaluationWithDetails
}

func (f *fakeEvalRepo) GetByRequest(_ context.Context, requestID uuid.UUID) (*model.EvaluationWithDetails, error) {
	ev, ok := f.byReq[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEvalRepo) ExistsForRequest(_ context.Context, requestID uuid.UUID) (bool, error) {
	_, ok := f.byReq[requestID]
	return ok, nil
}

func (f *fakeEvalRepo) Submit(ctx context.Context, eval *model.Evaluation, details []model.EvaluationDetail) error {
	// Mirrors the transactional repo: insert plus CAS to evaluated.
	if err := f.requests.UpdateStatus(ctx, eval.RequestID, model.RequestStatusFinished, model.RequestStatusEvaluated, nil); err != nil {
		return err
	}
	now := time.Now()
	eval.SubmittedAt = &now
	f.byReq[eval.RequestID] = &model.EvaluationWithDetails{Evaluation: *eval, Details: details}
	return nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ *time.Time) error {
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeAuditRepo struct {
	logs []*model.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, l *model.AuditLog) error {
	f.logs = append(f.logs, l)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return f.logs, nil
}

func (f *fakeAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func newFixture() (*Service, *fakeRequestRepo, *fakeEvalRepo, *fakeOutboxRepo) {
	requests := &fakeRequestRepo{requests: map[uuid.UUID]*model.Request{}}
	evals := &fakeEvalRepo{requests: requests, byReq: map[uuid.UUID]*model.EvaluationWithDetails{}}
	outbox := &fakeOutboxRepo{}
	svc := NewService(evals, requests, event.NewService(outbox), audit.NewService(&fakeAuditRepo{}))
	return svc, requests, evals, outbox
}

func finishedRequest(assignee uuid.UUID) *model.Request {
	req := &model.Request{
		Kind:        model.RequestKindTranslator,
		Status:      model.RequestStatusFinished,
		AssigneeID:  assignee,
		RequestedAt: time.Now().Add(-time.Hour),
	}
	req.ID = uuid.New()
	return req
}

func manager() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleManager, StaffID: uuid.New()}
}

func scoredInput(requestID uuid.UUID) *model.SubmitEvaluationRequest {
	return &model.SubmitEvaluationRequest{
		RequestID: requestID,
		Details: []model.EvaluationDetailInput{
			{CriteriaID: 1, Score: 4},
			{CriteriaID: 2, Score: 5, Comments: "clear handoff"},
		},
	}
}

func TestSubmitFlipsRequestToEvaluated(t *testing.T) {
	svc, requests, _, outbox := newFixture()
	assignee := uuid.New()
	req := finishedRequest(assignee)
	requests.requests[req.ID] = req

	actor := manager()
	eval, err := svc.Submit(context.Background(), actor, scoredInput(req.ID))
	require.NoError(t, err)

	assert.Equal(t, req.ID, eval.RequestID)
	assert.Equal(t, assignee, eval.EvaluateeID)
	assert.Equal(t, actor.UserID, eval.EvaluatorID)
	assert.Equal(t, model.EvaluationStatusSubmitted, eval.Status)

	stored, err := requests.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEvaluated, stored.Status)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventEvaluationSubmitted, outbox.events[0].EventType)
}

func TestSubmitSecondEvaluationRejected(t *testing.T) {
	svc, requests, _, _ := newFixture()
	req := finishedRequest(uuid.New())
	requests.requests[req.ID] = req

	_, err := svc.Submit(context.Background(), manager(), scoredInput(req.ID))
	require.NoError(t, err)

	// The request is now evaluated, so the lifecycle gate fires before
	// the uniqueness check.
	_, err = svc.Submit(context.Background(), manager(), scoredInput(req.ID))
	assert.ErrorIs(t, err, lifecycle.ErrTerminal)
}

func TestSubmitRequiresFinishedStatus(t *testing.T) {
	svc, requests, _, _ := newFixture()

	for _, status := range []model.RequestStatus{
		model.RequestStatusPending,
		model.RequestStatusAccepted,
	} {
		req := finishedRequest(uuid.New())
		req.Status = status
		requests.requests[req.ID] = req

		_, err := svc.Submit(context.Background(), manager(), scoredInput(req.ID))
		assert.ErrorIs(t, err, lifecycle.ErrInvalidAction, "status %s", status)
	}
}

func TestSubmitRoleGate(t *testing.T) {
	svc, requests, _, _ := newFixture()

	for _, role := range []string{
		model.RoleManagerPatient,
		model.RoleTranslator,
		model.RolePatientEscort,
		model.RoleUser,
	} {
		req := finishedRequest(uuid.New())
		requests.requests[req.ID] = req

		actor := model.Actor{UserID: uuid.New(), Role: role}
		_, err := svc.Submit(context.Background(), actor, scoredInput(req.ID))
		assert.ErrorIs(t, err, lifecycle.ErrUnauthorized, "role %s", role)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, requests, _, _ := newFixture()

	t.Run("no criteria", func(t *testing.T) {
		req := finishedRequest(uuid.New())
		requests.requests[req.ID] = req

		input := scoredInput(req.ID)
		input.Details = nil
		_, err := svc.Submit(context.Background(), manager(), input)
		assert.ErrorIs(t, err, ErrNoCriteriaScored)
	})

	t.Run("score out of range", func(t *testing.T) {
		req := finishedRequest(uuid.New())
		requests.requests[req.ID] = req

		input := scoredInput(req.ID)
		input.Details[0].Score = 6
		_, err := svc.Submit(context.Background(), manager(), input)
		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("no assignee", func(t *testing.T) {
		req := finishedRequest(uuid.Nil)
		requests.requests[req.ID] = req

		_, err := svc.Submit(context.Background(), manager(), scoredInput(req.ID))
		assert.ErrorIs(t, err, ErrNoEmployeeID)
	})
}

func TestGetByRequestViewGate(t *testing.T) {
	svc, requests, _, _ := newFixture()
	req := finishedRequest(uuid.New())
	requests.requests[req.ID] = req

	_, err := svc.Submit(context.Background(), manager(), scoredInput(req.ID))
	require.NoError(t, err)

	got, err := svc.GetByRequest(context.Background(), manager(), req.ID)
	require.NoError(t, err)
	assert.Len(t, got.Details, 2)

	escort := model.Actor{UserID: uuid.New(), Role: model.RolePatientEscort}
	_, err = svc.GetByRequest(context.Background(), escort, req.ID)
	assert.ErrorIs(t, err, ErrNotViewable)
}
