package bugs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// RepositoryPort defines data access methods for bugs.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Bug, int, error)
	FindByID(ctx context.Context, id string) (*Bug, error)
	Insert(ctx context.Context, bug *Bug) error
	Update(ctx context.Context, bug *Bug) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ListResult bundles a page of bugs with paging metadata.
type ListResult struct {
	Bugs       []Bug             `json:"bugs"`
	Pagination shared.Pagination `json:"pagination"`
}

var validStatuses = map[string]struct{}{
	StatusOpen: {}, StatusInProgress: {}, StatusResolved: {}, StatusClosed: {},
}

// Service handles bug business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *rbac.Evaluator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, evaluator *rbac.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// List returns one page of bugs.
func (s *Service) List(ctx context.Context, filters ListFilters) (ListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	bugs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	if bugs == nil {
		bugs = []Bug{}
	}
	return ListResult{Bugs: bugs, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

// Get loads one bug.
func (s *Service) Get(ctx context.Context, id string) (*Bug, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new bug owned by the principal.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Bug, error) {
	now := time.Now().UTC()
	priority := input.Priority
	if priority == "" {
		priority = "medium"
	}
	bug := &Bug{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      StatusOpen,
		Priority:    priority,
		ProjectID:   input.ProjectID,
		CreatorID:   principal.ID,
		AssigneeID:  input.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, bug); err != nil {
		return nil, err
	}
	return bug, nil
}

// Update applies mutable bug fields.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Bug, error) {
	bug, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != "" {
		bug.Title = input.Title
	}
	if input.Description != "" {
		bug.Description = input.Description
	}
	if input.Priority != "" {
		bug.Priority = input.Priority
	}
	if input.ProjectID != "" {
		bug.ProjectID = input.ProjectID
	}
	bug.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, bug); err != nil {
		return nil, err
	}
	return bug, nil
}

// UpdateStatus transitions a bug to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Bug, error) {
	if _, ok := validStatuses[status]; !ok {
		return nil, fmt.Errorf("bugs: unknown status %q: %w", status, httpx.ErrValidation)
	}
	bug, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bug.Status = status
	bug.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, bug); err != nil {
		return nil, err
	}
	return bug, nil
}

// Assign sets or clears the bug's assignee.
func (s *Service) Assign(ctx context.Context, id, assigneeID string) (*Bug, error) {
	bug, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bug.AssigneeID = assigneeID
	bug.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, bug); err != nil {
		return nil, err
	}
	return bug, nil
}

// Delete removes a bug. Bug deletion never delegates to the creator: only
// principals the evaluator admits (admins or explicit bug:delete holders,
// which no default role grants) may delete.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id string) error {
	bug, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.evaluator.CanDelete(principal, "bug", bug.CreatorID) {
		return fmt.Errorf("bugs: %w", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// CountByStatus aggregates bug counts per status for the dashboard.
func (s *Service) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}
