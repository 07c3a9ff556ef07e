package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
)

type evaluationRepository struct {
	db *sqlx.DB
}

func NewEvaluationRepository(db *sqlx.DB) repository.EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetByRequest(ctx context.Context, requestID uuid.UUID) (*model.EvaluationWithDetails, error) {
	query := `
		SELECT id, request_id, evaluator_id, evaluatee_id, comments, status,
			   submitted_at, created_at, updated_at
		FROM evaluations
		WHERE request_id = $1
	`
	var eval model.Evaluation
	err := r.db.GetContext(ctx, &eval, query, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	detailsQuery := `
		SELECT id, evaluation_id, criteria_id, score, comments
		FROM evaluation_details
		WHERE evaluation_id = $1
		ORDER BY criteria_id ASC
	`
	var details []model.EvaluationDetail
	if err := r.db.SelectContext(ctx, &details, detailsQuery, eval.ID); err != nil {
		return nil, fmt.Errorf("failed to get evaluation details: %w", err)
	}

	return &model.EvaluationWithDetails{Evaluation: eval, Details: details}, nil
}

func (r *evaluationRepository) ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM evaluations WHERE request_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, requestID); err != nil {
		return false, fmt.Errorf("failed to check evaluation existence: %w", err)
	}
	return exists, nil
}

// Submit writes the evaluation, its details, and the finished -> evaluated
// request transition in one transaction. Either all land or none do.
func (r *evaluationRepository) Submit(ctx context.Context, eval *model.Evaluation, details []model.EvaluationDetail) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	eval.CreatedAt = time.Now()
	eval.UpdatedAt = eval.CreatedAt
	now := eval.CreatedAt
	eval.SubmittedAt = &now

	insertEval := `
		INSERT INTO evaluations (
			id, request_id, evaluator_id, evaluatee_id, comments, status,
			submitted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, insertEval,
		eval.ID,
		eval.RequestID,
		eval.EvaluatorID,
		eval.EvaluateeID,
		eval.Comments,
		eval.Status,
		eval.SubmittedAt,
		eval.CreatedAt,
		eval.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}

	insertDetail := `
		INSERT INTO evaluation_details (
			id, evaluation_id, criteria_id, score, comments
		) VALUES ($1, $2, $3, $4, $5)
	`
	for i := range details {
		details[i].ID = uuid.New()
		details[i].EvaluationID = eval.ID
		if _, err := tx.ExecContext(ctx, insertDetail,
			details[i].ID,
			details[i].EvaluationID,
			details[i].CriteriaID,
			details[i].Score,
			details[i].Comments,
		); err != nil {
			return fmt.Errorf("failed to insert evaluation detail: %w", err)
		}
	}

	transition := `
		UPDATE requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, transition,
		model.RequestStatusEvaluated,
		time.Now(),
		eval.RequestID,
		model.RequestStatusFinished,
	)
	if err != nil {
		return fmt.Errorf("failed to transition request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStatusConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit evaluation: %w", err)
	}
	return nil
}
