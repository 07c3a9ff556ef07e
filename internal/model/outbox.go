package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Outbox event types emitted by the request and evaluation services.
const (
	EventRequestCreated      = "request.created"
	EventRequestAccepted     = "request.accepted"
	EventRequestFinished     = "request.finished"
	EventRequestCancelled    = "request.cancelled"
	EventEvaluationSubmitted = "evaluation.submitted"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// RequestEventPayload is the body published to the broker for request
// lifecycle events. The worker uses it to notify the assignee.
type RequestEventPayload struct {
	RequestID       uuid.UUID     `json:"request_id"`
	Kind            RequestKind   `json:"kind"`
	Status          RequestStatus `json:"status"`
	AssigneeID      uuid.UUID     `json:"assignee_id"`
	AssigneeName    string        `json:"assignee_name"`
	AssigneeContact string        `json:"assignee_contact"`
	ActorID         uuid.UUID     `json:"actor_id"`
}
