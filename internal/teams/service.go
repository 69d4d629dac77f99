package teams

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// RepositoryPort defines data access methods for teams.
type RepositoryPort interface {
	List(ctx context.Context) ([]Team, error)
	FindByID(ctx context.Context, id string) (*Team, error)
	Insert(ctx context.Context, team *Team) error
	Update(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id string) error
}

// Service handles team business logic.
type Service struct {
	repo      RepositoryPort
	evaluator *rbac.Evaluator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, evaluator *rbac.Evaluator) *Service {
	return &Service{repo: repo, evaluator: evaluator}
}

// List returns all teams.
func (s *Service) List(ctx context.Context) ([]Team, error) {
	teams, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []Team{}
	}
	return teams, nil
}

// Get loads one team.
func (s *Service) Get(ctx context.Context, id string) (*Team, error) {
	return s.repo.FindByID(ctx, id)
}

// Create stores a new team owned by the principal.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, input CreateInput) (*Team, error) {
	now := time.Now().UTC()
	team := &Team{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		LeadID:      input.LeadID,
		CreatorID:   principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Update applies mutable team fields.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Team, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		team.Name = input.Name
	}
	if input.Description != "" {
		team.Description = input.Description
	}
	if input.LeadID != "" {
		team.LeadID = input.LeadID
	}
	team.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Delete removes a team. Creators may delete their own teams; otherwise the
// evaluator requires the team:delete permission.
func (s *Service) Delete(ctx context.Context, principal *shared.Principal, id string) error {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.evaluator.CanDelete(principal, "team", team.CreatorID) {
		return fmt.Errorf("teams: %w", httpx.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}
