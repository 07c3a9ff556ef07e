package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/etrack-api/internal/handler"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
	"github.com/hospitalops/etrack-api/internal/service/audit"
	"github.com/hospitalops/etrack-api/internal/service/event"
	requestsvc "github.com/hospitalops/etrack-api/internal/service/request"
)

type stubRequestRepo struct {
	rows map[uuid.UUID]*model.Request
}

func (s *stubRequestRepo) Create(_ context.Context, req *model.Request) error {
	cp := *req
	s.rows[req.ID] = &cp
	return nil
}

func (s *stubRequestRepo) Get(_ context.Context, id uuid.UUID) (*model.Request, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *stubRequestRepo) List(_ context.Context, _ *model.RequestFilters) ([]*model.Request, error) {
	out := make([]*model.Request, 0, len(s.rows))
	for _, row := range s.rows {
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubRequestRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.RequestStatus, lastFinishAt *time.Time) error {
	row, ok := s.rows[id]
	if !ok || row.Status != from {
		return repository.ErrStatusConflict
	}
	row.Status = to
	if lastFinishAt != nil {
		row.LastFinishAt = lastFinishAt
	}
	return nil
}

type stubStaffRepo struct {
	rows map[uuid.UUID]*model.StaffMember
}

func (s *stubStaffRepo) Create(_ context.Context, m *model.StaffMember) error { return nil }

func (s *stubStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.StaffMember, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return row, nil
}

func (s *stubStaffRepo) List(_ context.Context, _ *model.StaffFilters) ([]*model.StaffMember, error) {
	return nil, nil
}

func (s *stubStaffRepo) Update(_ context.Context, _ *model.StaffMember) error { return nil }
func (s *stubStaffRepo) Delete(_ context.Context, _ uuid.UUID) error          { return nil }

type stubOutboxRepo struct{}

func (stubOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }
func (stubOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (stubOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }
func (stubOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ *time.Time) error {
	return nil
}
func (stubOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubAuditRepo struct{}

func (stubAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }
func (stubAuditRepo) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return nil, nil
}
func (stubAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func setupRouter(t *testing.T, actor model.Actor) (*gin.Engine, *stubRequestRepo, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	requests := &stubRequestRepo{rows: map[uuid.UUID]*model.Request{}}
	staffID := uuid.New()
	member := &model.StaffMember{Name: "N. Chaiya", Role: model.RoleTranslator, Phone: "081-555-0101"}
	member.ID = staffID
	staff := &stubStaffRepo{rows: map[uuid.UUID]*model.StaffMember{staffID: member}}

	svc := requestsvc.NewService(requests, staff, event.NewService(stubOutboxRepo{}), audit.NewService(stubAuditRepo{}), nil)
	h := NewHandler(svc)

	engine := gin.New()
	api := engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set(handler.ActorKey, actor)
		c.Next()
	})
	h.RegisterRoutes(api)

	return engine, requests, staffID
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateRequestEndpoint(t *testing.T) {
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleUser}
	engine, _, staffID := setupRouter(t, actor)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/requests", gin.H{
		"kind":          "translator",
		"assignee_id":   staffID,
		"department_id": uuid.New(),
		"language":      "km",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status string        `json:"status"`
		Data   model.Request `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.RequestStatusPending, resp.Data.Status)
	assert.Equal(t, "N. Chaiya", resp.Data.AssigneeName)
}

func TestCreateRequestEndpointValidation(t *testing.T) {
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleUser}
	engine, _, staffID := setupRouter(t, actor)

	// Missing kind fails binding.
	w := doJSON(t, engine, http.MethodPost, "/api/v1/requests", gin.H{
		"assignee_id":   staffID,
		"department_id": uuid.New(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Translator without language fails the payload check.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/requests", gin.H{
		"kind":          "translator",
		"assignee_id":   staffID,
		"department_id": uuid.New(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStatusEndpointMapping(t *testing.T) {
	manager := model.Actor{UserID: uuid.New(), Role: model.RoleManager}
	engine, requests, staffID := setupRouter(t, manager)

	req := &model.Request{
		Kind:        model.RequestKindTranslator,
		Status:      model.RequestStatusPending,
		AssigneeID:  staffID,
		RequestedAt: time.Now(),
		Language:    "km",
	}
	req.ID = uuid.New()
	require.NoError(t, requests.Create(context.Background(), req))

	statusPath := fmt.Sprintf("/api/v1/requests/%s/status", req.ID)

	// finish from pending is not a valid transition.
	w := doJSON(t, engine, http.MethodPost, statusPath, gin.H{"action": "finish"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown action fails binding.
	w = doJSON(t, engine, http.MethodPost, statusPath, gin.H{"action": "escalate"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, engine, http.MethodPost, statusPath, gin.H{"action": "accept"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodPost, statusPath, gin.H{"action": "finish"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Cancel after finished conflicts with the forward-only path.
	w = doJSON(t, engine, http.MethodDelete, fmt.Sprintf("/api/v1/requests/%s", req.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown ID maps to 404.
	w = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", uuid.New()), gin.H{"action": "accept"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusEndpointForbiddenForStranger(t *testing.T) {
	stranger := model.Actor{UserID: uuid.New(), Role: model.RoleTranslator, StaffID: uuid.New()}
	engine, requests, staffID := setupRouter(t, stranger)

	req := &model.Request{
		Kind:        model.RequestKindTranslator,
		Status:      model.RequestStatusPending,
		AssigneeID:  staffID,
		RequestedAt: time.Now(),
		Language:    "km",
	}
	req.ID = uuid.New()
	require.NoError(t, requests.Create(context.Background(), req))

	w := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/v1/requests/%s/status", req.ID), gin.H{"action": "accept"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
