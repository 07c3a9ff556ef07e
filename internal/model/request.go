package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RequestKind string

const (
	RequestKindPatientEscort RequestKind = "patient_escort"
	RequestKindTranslator    RequestKind = "translator"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusFinished  RequestStatus = "finished"
	RequestStatusEvaluated RequestStatus = "evaluated"
	RequestStatusCancelled RequestStatus = "cancelled"

	// Legacy aliases still sent by older dashboard builds. Accepted on
	// input, never stored.
	RequestStatusCreated   RequestStatus = "created"
	RequestStatusCompleted RequestStatus = "completed"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityCritical Priority = "critical"
)

// Request is a unit of tracked work: a patient transport or a
// translation job, bound to exactly one assignee at creation.
type Request struct {
	Base
	Kind            RequestKind   `db:"kind" json:"kind"`
	Status          RequestStatus `db:"status" json:"status"`
	Priority        Priority      `db:"priority" json:"priority"`
	RequestedAt     time.Time     `db:"requested_at" json:"requested_at"`
	LastFinishAt    *time.Time    `db:"last_finish_at" json:"last_finish_at,omitempty"`
	AssigneeID      uuid.UUID     `db:"assignee_id" json:"assignee_id"`
	AssigneeName    string        `db:"assignee_name" json:"assignee_name"`
	AssigneeContact string        `db:"assignee_contact" json:"assignee_contact"`
	DepartmentID    uuid.UUID     `db:"department_id" json:"department_id"`
	Notes           string        `db:"notes" json:"notes,omitempty"`

	// patient_escort payload
	PatientHN string         `db:"patient_hn" json:"patient_hn,omitempty"`
	Equipment pq.StringArray `db:"equipment" json:"equipment,omitempty"`

	// translator payload
	Language string `db:"language" json:"language,omitempty"`
}

type CreateRequestRequest struct {
	Kind         RequestKind `json:"kind" binding:"required,oneof=patient_escort translator"`
	Priority     Priority    `json:"priority" binding:"omitempty,oneof=low normal critical"`
	AssigneeID   uuid.UUID   `json:"assignee_id" binding:"required"`
	DepartmentID uuid.UUID   `json:"department_id" binding:"required"`
	Notes        string      `json:"notes" binding:"max=1000"`
	PatientHN    string      `json:"patient_hn"`
	Equipment    []string    `json:"equipment"`
	Language     string      `json:"language"`
}

type UpdateRequestStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=accept finish cancel"`
}

type RequestFilters struct {
	Kind         RequestKind   `form:"type"`
	Status       RequestStatus `form:"status"`
	AssigneeID   uuid.UUID     `form:"assignee_id"`
	DepartmentID uuid.UUID     `form:"department_id"`
	StartDate    time.Time     `form:"start_date" time_format:"2006-01-02"`
	EndDate      time.Time     `form:"end_date" time_format:"2006-01-02"`
}
