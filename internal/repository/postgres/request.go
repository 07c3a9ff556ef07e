package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
)

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `
	id, kind, status, priority, requested_at, last_finish_at,
	assignee_id, assignee_name, assignee_contact, department_id,
	notes, patient_hn, equipment, language, created_at, updated_at
`

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	query := `
		INSERT INTO requests (
			id, kind, status, priority, requested_at,
			assignee_id, assignee_name, assignee_contact, department_id,
			notes, patient_hn, equipment, language, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Kind,
		req.Status,
		req.Priority,
		req.RequestedAt,
		req.AssigneeID,
		req.AssigneeName,
		req.AssigneeContact,
		req.DepartmentID,
		req.Notes,
		req.PatientHN,
		pq.Array(req.Equipment),
		req.Language,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1`, requestColumns)

	var req model.Request
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filters *model.RequestFilters) ([]*model.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE 1=1`, requestColumns)
	args := []interface{}{}
	i := 1

	if filters != nil {
		if filters.Kind != "" {
			query += fmt.Sprintf(" AND kind = $%d", i)
			args = append(args, filters.Kind)
			i++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", i)
			args = append(args, filters.Status)
			i++
		}
		if filters.AssigneeID != uuid.Nil {
			query += fmt.Sprintf(" AND assignee_id = $%d", i)
			args = append(args, filters.AssigneeID)
			i++
		}
		if filters.DepartmentID != uuid.Nil {
			query += fmt.Sprintf(" AND department_id = $%d", i)
			args = append(args, filters.DepartmentID)
			i++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND requested_at >= $%d", i)
			args = append(args, filters.StartDate)
			i++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND requested_at < $%d", i)
			args = append(args, filters.EndDate)
			i++
		}
	}

	query += " ORDER BY requested_at DESC"

	var requests []*model.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RequestStatus, lastFinishAt *time.Time) error {
	query := `
		UPDATE requests
		SET status = $1,
			last_finish_at = COALESCE($2, last_finish_at),
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, lastFinishAt, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}
