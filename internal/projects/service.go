package projects

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Project, int, error)
	FindByID(ctx context.Context, id string) (*Project, error)
	Insert(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// ListResult bundles a page of projects with paging metadata.
type ListResult struct {
	Projects   []Project         `json:"projects"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service handles project business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *rbac.Evaluator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, evaluator *rbac.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// List returns one page of projects.
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
	projects, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	if projects == nil {
		projects = []Project{}
	}
	return ListResult{Projects: projects, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

// Get loads one project.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new project owned by the principal.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Status:      StatusActive,
		CreatorID:   principal.ID,
		TeamID:      input.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Update applies mutable project fields.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		project.Name = input.Name
	}
	if input.Description != "" {
		project.Description = input.Description
	}
	if input.Status != "" {
		project.Status = input.Status
	}
	if input.TeamID != "" {
		project.TeamID = input.TeamID
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project. Creators may delete their own projects;
// otherwise the evaluator requires the project:delete permission.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id string) error {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.evaluator.CanDelete(principal, "project", project.CreatorID) {
		return fmt.Errorf("projects: %w", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// Count returns the total number of projects for the dashboard.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
