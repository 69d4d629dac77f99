package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]Task, int, error)
	FindByID(ctx context.Context, id string) (*Task, error)
	Insert(ctx context.Context, task *Task) error
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ListResult bundles a page of tasks with paging metadata.
type ListResult struct {
	Tasks      []Task            `json:"tasks"`
	Pagination shared.Pagination `json:"pagination"`
}

var validStatuses = map[string]struct{}{
	StatusTodo: {}, StatusInProgress: {}, StatusDone: {},
}

// Service handles task business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *rbac.Evaluator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, evaluator *rbac.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// List returns one page of tasks.
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
	tasks, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return ListResult{Tasks: tasks, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

// Get loads one task.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new task owned by the principal.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Task, error) {
	now := time.Now().UTC()
	priority := input.Priority
	if priority == "" {
		priority = "medium"
	}
	task := &Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      StatusTodo,
		Priority:    priority,
		ProjectID:   input.ProjectID,
		CreatorID:   principal.ID,
		AssigneeID:  input.AssigneeID,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies mutable task fields.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != "" {
		task.Title = input.Title
	}
	if input.Description != "" {
		task.Description = input.Description
	}
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	if input.ProjectID != "" {
		task.ProjectID = input.ProjectID
	}
	if input.AssigneeID != "" {
		task.AssigneeID = input.AssigneeID
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus transitions a task to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Task, error) {
	if _, ok := validStatuses[status]; !ok {
		return nil, fmt.Errorf("tasks: unknown status %q: %w", status, httpx.ErrValidation)
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Status = status
	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task. Creators may delete their own tasks; otherwise the
// evaluator requires the task:delete permission.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id string) error {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.evaluator.CanDelete(principal, "task", task.CreatorID) {
		return fmt.Errorf("tasks: %w", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// CountByStatus aggregates task counts per status for the dashboard.
func (s *Service) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx)
}
