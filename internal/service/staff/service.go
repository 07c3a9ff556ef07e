package staff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
)

const staffCacheKey = "staff:list:"

type Service struct {
	repo        repository.StaffRepository
	requestRepo repository.RequestRepository
	cache       *gocache.Cache
}

// NewService builds the staff directory service. cacheTTL bounds how
// stale the directory itself may be; availability is never cached.
func NewService(repo repository.StaffRepository, requestRepo repository.RequestRepository, cacheTTL, cleanupInterval time.Duration) *Service {
	return &Service{
		repo:        repo,
		requestRepo: requestRepo,
		cache:       gocache.New(cacheTTL, cleanupInterval),
	}
}

// ProjectAvailability derives each staff member's availability from the
// request snapshot: NotAvailable iff at least one request bound to them
// is still pending. Pure and deterministic; recompute on every snapshot,
// never store the result.
func ProjectAvailability(staff []*model.StaffMember, requests []*model.Request) map[uuid.UUID]model.Availability {
	open := make(map[uuid.UUID]bool, len(requests))
	for _, req := range requests {
		if lifecycle.Normalize(req.Status) == model.RequestStatusPending {
			open[req.AssigneeID] = true
		}
	}

	out := make(map[uuid.UUID]model.Availability, len(staff))
	for _, member := range staff {
		if open[member.ID] {
			out[member.ID] = model.NotAvailable
		} else {
			out[member.ID] = model.Available
		}
	}
	return out
}

// ListWithAvailability returns the directory joined with availability
// projected from the latest request snapshot.
func (s *Service) ListWithAvailability(ctx context.Context, filters *model.StaffFilters) ([]*model.StaffWithAvailability, error) {
	staff, err := s.list(ctx, filters)
	if err != nil {
		return nil, err
	}

	// Availability must come from a fresh snapshot, so only open
	// requests are fetched and the fold runs on every call.
	requests, err := s.requestRepo.List(ctx, &model.RequestFilters{Status: model.RequestStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}

	availability := ProjectAvailability(staff, requests)

	out := make([]*model.StaffWithAvailability, 0, len(staff))
	for _, member := range staff {
		out = append(out, &model.StaffWithAvailability{
			StaffMember:  *member,
			Availability: availability[member.ID],
		})
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, filters *model.StaffFilters) ([]*model.StaffMember, error) {
	key := cacheKey(filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.StaffMember), nil
	}

	staff, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	s.cache.Set(key, staff, gocache.DefaultExpiration)
	return staff, nil
}

func (s *Service) GetStaffMember(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return member, nil
}

func (s *Service) CreateStaffMember(ctx context.Context, member *model.StaffMember) error {
	member.ID = uuid.New()
	if member.Status == "" {
		member.Status = model.UserStatusActive
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("failed to create staff member: %w", err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) UpdateStaffMember(ctx context.Context, member *model.StaffMember) error {
	if err := s.repo.Update(ctx, member); err != nil {
		return fmt.Errorf("failed to update staff member: %w", err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) DeleteStaffMember(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete staff member: %w", err)
	}
	s.cache.Flush()
	return nil
}

func cacheKey(filters *model.StaffFilters) string {
	if filters == nil {
		return staffCacheKey
	}
	return staffCacheKey + filters.Role + ":" + filters.Language + ":" + filters.Status
}
