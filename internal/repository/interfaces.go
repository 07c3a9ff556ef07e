package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalops/etrack-api/internal/model"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStatusConflict is returned when a compare-and-swap status update
// matched no row: the request moved under us (or never existed).
var ErrStatusConflict = errors.New("request status changed concurrently")

// All repository interfaces in one file
type (
	RequestRepository interface {
		Create(ctx context.Context, req *model.Request) error
		Get(ctx context.Context, id uuid.UUID) (*model.Request, error)
		List(ctx context.Context, filters *model.RequestFilters) ([]*model.Request, error)
		// UpdateStatus flips status only when the stored status still
		// equals from. lastFinishAt is written when non-nil.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RequestStatus, lastFinishAt *time.Time) error
	}

	StaffRepository interface {
		Create(ctx context.Context, staff *model.StaffMember) error
		Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
		List(ctx context.Context, filters *model.StaffFilters) ([]*model.StaffMember, error)
		Update(ctx context.Context, staff *model.StaffMember) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	EvaluationRepository interface {
		GetByRequest(ctx context.Context, requestID uuid.UUID) (*model.EvaluationWithDetails, error)
		ExistsForRequest(ctx context.Context, requestID uuid.UUID) (bool, error)
		// Submit inserts the evaluation with its details and flips the
		// request finished -> evaluated inside one transaction.
		Submit(ctx context.Context, eval *model.Evaluation, details []model.EvaluationDetail) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
