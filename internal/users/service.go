package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	DisplayName(ctx context.Context, id string) (string, error)
}

// ListResult bundles a page of users with paging metadata.
type ListResult struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// RepairResult reports the outcome of a permission drift repair.
type RepairResult struct {
	Repaired    bool     `json:"repaired"`
	Permissions []string `json:"permissions"`
}

// Service handles user account business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *rbac.Evaluator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, evaluator *rbac.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// List returns one page of users.
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
	users, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	if users == nil {
		users = []User{}
	}
	return ListResult{Users: users, Pagination: shared.NewPagination(filters.Page, filters.Limit, total)}, nil
}

// Get loads one user.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new account. The permission set is seeded from the role
// catalog; caller-supplied permissions are never accepted.
func (s *Service) Create(ctx context.Context, input CreateInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		Permissions:  rbac.PermissionsForRole(input.Role),
		Status:       shared.StatusActive,
		TeamID:       input.TeamID,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies mutable account fields. A role change re-seeds the
// permission set from the catalog so stored permissions track the new role.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Role != "" && input.Role != user.Role {
		user.Role = input.Role
		user.Permissions = rbac.PermissionsForRole(input.Role)
	}
	if input.Status != "" {
		user.Status = input.Status
	}
	if input.TeamID != "" {
		user.TeamID = input.TeamID
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Deleting users is reserved for administrators
// and self-deletion is rejected outright.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id string) error {
	if principal != nil && principal.ID == id {
		return fmt.Errorf("users: cannot delete own account: %w", httpx.ErrForbidden)
	}
	if !s.evaluator.CanDelete(principal, "user", "") {
		return fmt.Errorf("users: %w", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// RepairPermissions compares a user's stored permissions against the role
// catalog and overwrites them on mismatch. The comparison is
// order-insensitive, so a reordered but equal set is left untouched.
func (s *Service) RepairPermissions(ctx context.Context, id string) (RepairResult, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RepairResult{}, err
	}
	expected := rbac.PermissionsForRole(user.Role)
	if rbac.PermissionsMatch(user.Permissions, expected) {
		return RepairResult{Repaired: false, Permissions: user.Permissions}, nil
	}
	user.Permissions = expected
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return RepairResult{}, err
	}
	return RepairResult{Repaired: true, Permissions: expected}, nil
}

// DisplayName resolves a user id to its display name. Satisfies the audit
// recorder's name lookup.
func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	return s.repo.DisplayName(ctx, id)
}
