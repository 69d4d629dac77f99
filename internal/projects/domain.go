// Package projects manages projects grouping bugs and tasks.
package projects

import "time"

// Project statuses.
const (
	StatusActive    = "active"
	StatusArchived  = "archived"
	StatusCompleted = "completed"
)

// Project represents one project.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatorID   string    `json:"creatorId"`
	TeamID      string    `json:"teamId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the fields accepted on project creation.
type CreateInput struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	TeamID      string `json:"teamId"`
}

// UpdateInput carries the mutable project fields.
type UpdateInput struct {
	Name        string `json:"name" validate:"omitempty,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status" validate:"omitempty,oneof=active archived completed"`
	TeamID      string `json:"teamId"`
}

// ListFilters narrow the project listing.
type ListFilters struct {
	Status string
	TeamID string
	Search string
	Page   int
	Limit  int
}
