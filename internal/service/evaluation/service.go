package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
	"github.com/hospitalops/etrack-api/internal/service/audit"
	"github.com/hospitalops/etrack-api/internal/service/event"
)

var (
	ErrNoEmployeeID     = errors.New("assignee cannot be resolved for evaluation")
	ErrNoCriteriaScored = errors.New("at least one criterion must be scored")
	ErrInvalidScore     = errors.New("score must be between 1 and 5 with a valid criteria id")
	ErrAlreadyEvaluated = errors.New("request already has an evaluation")
	ErrNotViewable      = errors.New("evaluation not viewable for this actor")
)

type Service struct {
	repo        repository.EvaluationRepository
	requestRepo repository.RequestRepository
	eventSvc    *event.Service
	auditor     *audit.Service
	validate    *validator.Validate
}

func NewService(repo repository.EvaluationRepository, requestRepo repository.RequestRepository, eventSvc *event.Service, auditor *audit.Service) *Service {
	return &Service{
		repo:        repo,
		requestRepo: requestRepo,
		eventSvc:    eventSvc,
		auditor:     auditor,
		validate:    validator.New(),
	}
}

// CanEvaluate reports whether actor may create an evaluation for req:
// the request is finished, the role is an evaluator role, and no
// evaluation exists yet.
func (s *Service) CanEvaluate(ctx context.Context, req *model.Request, actorRole string) (bool, error) {
	if lifecycle.Normalize(req.Status) != model.RequestStatusFinished {
		return false, nil
	}
	if !lifecycle.CanEvaluateRole(actorRole) {
		return false, nil
	}
	exists, err := s.repo.ExistsForRequest(ctx, req.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing evaluation: %w", err)
	}
	return !exists, nil
}

// CanViewEvaluation is pure: evaluated request + management role.
func CanViewEvaluation(req *model.Request, actorRole string) bool {
	return lifecycle.Normalize(req.Status) == model.RequestStatusEvaluated &&
		lifecycle.IsManagement(actorRole)
}

// Submit validates and stores the evaluation. The insert and the
// finished -> evaluated transition are atomic: the repository runs both
// in one transaction.
func (s *Service) Submit(ctx context.Context, actor model.Actor, input *model.SubmitEvaluationRequest) (*model.Evaluation, error) {
	req, err := s.requestRepo.Get(ctx, input.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	// Run the role/status gate through the lifecycle rules so the
	// authorization errors are uniform with the other transitions.
	if _, err := lifecycle.Attempt(*req, lifecycle.ActionEvaluate, actor, time.Now()); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForRequest(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing evaluation: %w", err)
	}
	if exists {
		return nil, ErrAlreadyEvaluated
	}

	if req.AssigneeID == uuid.Nil {
		return nil, ErrNoEmployeeID
	}
	if len(input.Details) == 0 {
		return nil, ErrNoCriteriaScored
	}

	details := make([]model.EvaluationDetail, 0, len(input.Details))
	for _, d := range input.Details {
		if err := s.validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		details = append(details, model.EvaluationDetail{
			CriteriaID: d.CriteriaID,
			Score:      d.Score,
			Comments:   d.Comments,
		})
	}

	eval := &model.Evaluation{
		RequestID:   req.ID,
		EvaluatorID: actor.UserID,
		EvaluateeID: req.AssigneeID,
		Comments:    input.Comments,
		Status:      model.EvaluationStatusSubmitted,
	}
	eval.ID = uuid.New()

	if err := s.repo.Submit(ctx, eval, details); err != nil {
		return nil, err
	}

	if err := s.eventSvc.Emit(ctx, model.EventEvaluationSubmitted, map[string]interface{}{
		"evaluation_id": eval.ID,
		"request_id":    req.ID,
		"evaluatee_id":  eval.EvaluateeID,
		"evaluator_id":  eval.EvaluatorID,
	}); err != nil {
		s.auditor.Log(ctx, actor.UserID, "event_failed", model.AuditEntityEvaluation, eval.ID, &audit.LogOptions{
			Metadata: map[string]interface{}{"error": err.Error()},
		})
	}

	s.auditor.Log(ctx, actor.UserID, model.AuditActionEvaluate, model.AuditEntityEvaluation, eval.ID, &audit.LogOptions{
		Changes: eval,
	})

	return eval, nil
}

// GetByRequest returns the evaluation with details, gated by the view
// rules.
func (s *Service) GetByRequest(ctx context.Context, actor model.Actor, requestID uuid.UUID) (*model.EvaluationWithDetails, error) {
	req, err := s.requestRepo.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if !CanViewEvaluation(req, actor.Role) {
		return nil, ErrNotViewable
	}

	out, err := s.repo.GetByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return out, nil
}
