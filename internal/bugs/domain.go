// Package bugs manages bug reports: CRUD, status transitions, and
// assignment.
package bugs

import "time"

// Bug statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// Bug represents one tracked defect.
type Bug struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	ProjectID   string    `json:"projectId,omitempty"`
	CreatorID   string    `json:"creatorId"`
	AssigneeID  string    `json:"assigneeId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the fields accepted on bug creation.
type CreateInput struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ProjectID   string `json:"projectId"`
	AssigneeID  string `json:"assigneeId"`
}

// UpdateInput carries the mutable bug fields.
type UpdateInput struct {
	Title       string `json:"title" validate:"omitempty,min=1,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ProjectID   string `json:"projectId"`
}

// ListFilters narrow the bug listing.
type ListFilters struct {
	Status     string
	Priority   string
	ProjectID  string
	AssigneeID string
	CreatorID  string
	Search     string
	Page       int
	Limit      int
}
