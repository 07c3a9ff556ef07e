package model

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	EvaluationStatusDraft     EvaluationStatus = "draft"
	EvaluationStatusSubmitted EvaluationStatus = "submitted"
)

// Evaluation is a scored review of one assignee's work on one finished
// request. One evaluation per request.
type Evaluation struct {
	Base
	RequestID   uuid.UUID        `db:"request_id" json:"request_id"`
	EvaluatorID uuid.UUID        `db:"evaluator_id" json:"evaluator_id"`
	EvaluateeID uuid.UUID        `db:"evaluatee_id" json:"evaluatee_id"`
	Comments    string           `db:"comments" json:"comments,omitempty"`
	Status      EvaluationStatus `db:"status" json:"status"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
}

type EvaluationDetail struct {
	ID           uuid.UUID `db:"id" json:"id"`
	EvaluationID uuid.UUID `db:"evaluation_id" json:"evaluation_id"`
	CriteriaID   int       `db:"criteria_id" json:"criteria_id"`
	Score        int       `db:"score" json:"score"`
	Comments     string    `db:"comments" json:"comments,omitempty"`
}

type SubmitEvaluationRequest struct {
	RequestID uuid.UUID               `json:"request_id" binding:"required"`
	Details   []EvaluationDetailInput `json:"details"`
	Comments  string                  `json:"comments" binding:"max=2000"`
}

type EvaluationDetailInput struct {
	CriteriaID int    `json:"criteria_id" validate:"required,min=1"`
	Score      int    `json:"score" validate:"required,min=1,max=5"`
	Comments   string `json:"comments" validate:"max=1000"`
}

// EvaluationWithDetails is the read model for GET /evaluations/by-request.
type EvaluationWithDetails struct {
	Evaluation Evaluation         `json:"evaluation"`
	Details    []EvaluationDetail `json:"details"`
}
