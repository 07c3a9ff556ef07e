package lifecycle

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/etrack-api/internal/model"
)

func newRequest(status model.RequestStatus) model.Request {
	req := model.Request{
		Kind:        model.RequestKindTranslator,
		Status:      status,
		RequestedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		AssigneeID:  uuid.New(),
	}
	req.ID = uuid.New()
	return req
}

func manager() model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleManager}
}

func owner(req model.Request) model.Actor {
	return model.Actor{UserID: uuid.New(), Role: model.RoleTranslator, StaffID: req.AssigneeID}
}

func TestFullForwardPath(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	req := newRequest(model.RequestStatusPending)

	req, err := Attempt(req, ActionAccept, manager(), now)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, req.Status)
	assert.Nil(t, req.LastFinishAt)

	finishTime := now.Add(30 * time.Minute)
	req, err = Attempt(req, ActionFinish, owner(req), finishTime)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusFinished, req.Status)
	require.NotNil(t, req.LastFinishAt)
	assert.Equal(t, finishTime, *req.LastFinishAt)

	req, err = Attempt(req, ActionEvaluate, manager(), finishTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEvaluated, req.Status)
	assert.Equal(t, finishTime, *req.LastFinishAt, "LastFinishAt must not move after finish")

	_, err = Attempt(req, ActionCancel, manager(), finishTime.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestTerminalClosure(t *testing.T) {
	actions := []Action{ActionAccept, ActionFinish, ActionCancel, ActionEvaluate}
	for _, status := range []model.RequestStatus{model.RequestStatusEvaluated, model.RequestStatusCancelled} {
		for _, action := range actions {
			req := newRequest(status)
			_, err := Attempt(req, action, model.Actor{Role: model.RoleAdmin}, time.Now())
			assert.ErrorIs(t, err, ErrTerminal, "status=%s action=%s", status, action)
		}
	}
}

func TestEvaluateAuthorization(t *testing.T) {
	for _, role := range []string{model.RoleTranslator, model.RolePatientEscort, model.RoleUser, model.RoleManagerPatient} {
		req := newRequest(model.RequestStatusFinished)
		_, err := Attempt(req, ActionEvaluate, model.Actor{Role: role, StaffID: req.AssigneeID}, time.Now())
		assert.ErrorIs(t, err, ErrUnauthorized, "role=%s", role)
	}

	for _, role := range []string{model.RoleAdmin, model.RoleManager, model.RoleManagerTranslator} {
		req := newRequest(model.RequestStatusFinished)
		updated, err := Attempt(req, ActionEvaluate, model.Actor{Role: role}, time.Now())
		require.NoError(t, err, "role=%s", role)
		assert.Equal(t, model.RequestStatusEvaluated, updated.Status)
	}
}

func TestAcceptRequiresOwnershipOrManagement(t *testing.T) {
	req := newRequest(model.RequestStatusPending)

	_, err := Attempt(req, ActionAccept, model.Actor{Role: model.RoleTranslator, StaffID: uuid.New()}, time.Now())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = Attempt(req, ActionAccept, model.Actor{Role: model.RoleUser}, time.Now())
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := Attempt(req, ActionAccept, owner(req), time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAccepted, updated.Status)
}

func TestCancelAllowedFromNonTerminal(t *testing.T) {
	for _, status := range []model.RequestStatus{model.RequestStatusPending, model.RequestStatusCreated, model.RequestStatusAccepted} {
		req := newRequest(status)
		updated, err := Attempt(req, ActionCancel, model.Actor{Role: model.RoleUser}, time.Now())
		require.NoError(t, err, "status=%s", status)
		assert.Equal(t, model.RequestStatusCancelled, updated.Status)
	}

	// Cancel is closed off once finished.
	req := newRequest(model.RequestStatusFinished)
	_, err := Attempt(req, ActionCancel, model.Actor{Role: model.RoleAdmin}, time.Now())
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestInvalidActions(t *testing.T) {
	tests := []struct {
		status model.RequestStatus
		action Action
	}{
		{model.RequestStatusPending, ActionFinish},
		{model.RequestStatusPending, ActionEvaluate},
		{model.RequestStatusAccepted, ActionAccept},
		{model.RequestStatusAccepted, ActionEvaluate},
		{model.RequestStatusFinished, ActionAccept},
		{model.RequestStatusFinished, ActionFinish},
	}
	for _, tt := range tests {
		req := newRequest(tt.status)
		_, err := Attempt(req, tt.action, model.Actor{Role: model.RoleAdmin}, time.Now())
		assert.ErrorIs(t, err, ErrInvalidAction, "status=%s action=%s", tt.status, tt.action)
	}
}

func TestNormalizeAliases(t *testing.T) {
	assert.Equal(t, model.RequestStatusPending, Normalize(model.RequestStatusCreated))
	assert.Equal(t, model.RequestStatusFinished, Normalize(model.RequestStatusCompleted))
	assert.Equal(t, model.RequestStatusAccepted, Normalize(model.RequestStatusAccepted))

	// Aliased statuses behave identically to their canonical forms.
	req := newRequest(model.RequestStatusCompleted)
	updated, err := Attempt(req, ActionEvaluate, manager(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEvaluated, updated.Status)
}

// TestStatusNeverRegresses drives random action sequences with random
// actors and checks the forward-path rank is non-decreasing until a
// terminal status is reached.
func TestStatusNeverRegresses(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	actions := []Action{ActionAccept, ActionFinish, ActionCancel, ActionEvaluate}
	roles := []string{
		model.RoleAdmin, model.RoleManager, model.RoleManagerTranslator,
		model.RoleManagerPatient, model.RoleTranslator, model.RolePatientEscort, model.RoleUser,
	}

	for i := 0; i < 500; i++ {
		req := newRequest(model.RequestStatusPending)
		lastRank := 0
		for step := 0; step < 10; step++ {
			action := actions[rng.Intn(len(actions))]
			actor := model.Actor{UserID: uuid.New(), Role: roles[rng.Intn(len(roles))]}
			if rng.Intn(2) == 0 {
				actor.StaffID = req.AssigneeID
			}

			updated, err := Attempt(req, action, actor, time.Now())
			if err != nil {
				assert.Equal(t, req.Status, updated.Status, "failed attempt must not change status")
				continue
			}
			req = updated

			if req.Status == model.RequestStatusCancelled {
				assert.True(t, IsTerminal(req.Status))
				break
			}
			r, ok := Rank(req.Status)
			require.True(t, ok, "status %s has no rank", req.Status)
			assert.GreaterOrEqual(t, r, lastRank, "status regressed on iteration %d", i)
			lastRank = r
		}
	}
}
