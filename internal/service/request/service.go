package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
	"github.com/hospitalops/etrack-api/internal/service/audit"
	"github.com/hospitalops/etrack-api/internal/service/event"
	"github.com/hospitalops/etrack-api/pkg/metrics"
)

type Service struct {
	repo      repository.RequestRepository
	staffRepo repository.StaffRepository
	eventSvc  *event.Service
	auditor   *audit.Service
	metrics   *metrics.Metrics
}

// NewService builds the request service. metrics may be nil when the
// caller does not export lifecycle counters.
func NewService(repo repository.RequestRepository, staffRepo repository.StaffRepository, eventSvc *event.Service, auditor *audit.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		staffRepo: staffRepo,
		eventSvc:  eventSvc,
		auditor:   auditor,
		metrics:   m,
	}
}

var transitionEvents = map[model.RequestStatus]string{
	model.RequestStatusAccepted:  model.EventRequestAccepted,
	model.RequestStatusFinished:  model.EventRequestFinished,
	model.RequestStatusCancelled: model.EventRequestCancelled,
}

func (s *Service) CreateRequest(ctx context.Context, actor model.Actor, input *model.CreateRequestRequest) (*model.Request, error) {
	if err := validatePayload(input); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	// Exactly one assignee is bound at creation; reassignment is not
	// supported.
	assignee, err := s.staffRepo.Get(ctx, input.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	priority := input.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	req := &model.Request{
		Kind:            input.Kind,
		Status:          model.RequestStatusPending,
		Priority:        priority,
		RequestedAt:     time.Now(),
		AssigneeID:      assignee.ID,
		AssigneeName:    assignee.Name,
		AssigneeContact: assignee.Phone,
		DepartmentID:    input.DepartmentID,
		Notes:           input.Notes,
		PatientHN:       input.PatientHN,
		Equipment:       pq.StringArray(input.Equipment),
		Language:        input.Language,
	}
	req.ID = uuid.New()

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if err := s.eventSvc.Emit(ctx, model.EventRequestCreated, payloadFor(req, actor)); err != nil {
		s.auditor.Log(ctx, actor.UserID, "event_failed", model.AuditEntityRequest, req.ID, &audit.LogOptions{
			Metadata: map[string]interface{}{"error": err.Error()},
		})
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionCreate, model.AuditEntityRequest, req.ID, &audit.LogOptions{
		Changes: req,
	})

	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, filters *model.RequestFilters) ([]*model.Request, error) {
	if filters != nil {
		filters.Status = lifecycle.Normalize(filters.Status)
	}
	requests, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus runs one lifecycle transition on behalf of actor. The
// decision is made by the pure lifecycle rules; this method only persists
// the outcome. Repo errors surface directly: there is no automatic retry.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, action lifecycle.Action) (*model.Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	updated, err := lifecycle.Attempt(*req, action, actor, time.Now())
	if err != nil {
		s.countDenied(action, err)
		return nil, err
	}

	var lastFinishAt *time.Time
	if updated.LastFinishAt != nil && req.LastFinishAt == nil {
		lastFinishAt = updated.LastFinishAt
	}

	from := lifecycle.Normalize(req.Status)
	if err := s.repo.UpdateStatus(ctx, id, from, updated.Status, lastFinishAt); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(action), string(updated.Status)).Inc()
	}

	if eventType, ok := transitionEvents[updated.Status]; ok {
		if err := s.eventSvc.Emit(ctx, eventType, payloadFor(&updated, actor)); err != nil {
			s.auditor.Log(ctx, actor.UserID, "event_failed", model.AuditEntityRequest, id, &audit.LogOptions{
				Metadata: map[string]interface{}{"error": err.Error()},
			})
		}
	}

	s.auditor.Log(ctx, actor.UserID, string(action), model.AuditEntityRequest, id, &audit.LogOptions{
		Changes: map[string]interface{}{
			"status_from": from,
			"status_to":   updated.Status,
		},
	})

	return &updated, nil
}

// CancelRequest serves DELETE /requests/:id.
func (s *Service) CancelRequest(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Request, error) {
	return s.UpdateStatus(ctx, actor, id, lifecycle.ActionCancel)
}

func (s *Service) countDenied(action lifecycle.Action, err error) {
	if s.metrics == nil {
		return
	}
	reason := "error"
	switch {
	case errors.Is(err, lifecycle.ErrUnauthorized):
		reason = "unauthorized"
	case errors.Is(err, lifecycle.ErrTerminal):
		reason = "terminal"
	case errors.Is(err, lifecycle.ErrInvalidAction):
		reason = "invalid_action"
	}
	s.metrics.TransitionDenied.WithLabelValues(string(action), reason).Inc()
}

func validatePayload(input *model.CreateRequestRequest) error {
	switch input.Kind {
	case model.RequestKindPatientEscort:
		if input.PatientHN == "" {
			return fmt.Errorf("patient HN is required for escort requests")
		}
	case model.RequestKindTranslator:
		if input.Language == "" {
			return fmt.Errorf("language is required for translator requests")
		}
	default:
		return fmt.Errorf("unknown request kind: %s", input.Kind)
	}
	return nil
}

func payloadFor(req *model.Request, actor model.Actor) model.RequestEventPayload {
	return model.RequestEventPayload{
		RequestID:       req.ID,
		Kind:            req.Kind,
		Status:          req.Status,
		AssigneeID:      req.AssigneeID,
		AssigneeName:    req.AssigneeName,
		AssigneeContact: req.AssigneeContact,
		ActorID:         actor.UserID,
	}
}
