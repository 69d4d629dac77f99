// Package users manages user accounts: CRUD, permission seeding, and the
// drift-repair maintenance operation.
package users

import "time"

// User represents a user account for management. PasswordHash never crosses
// the HTTP boundary.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	Status       string    `json:"status"`
	TeamID       string    `json:"teamId,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateInput carries the fields accepted on user creation. Permissions are
// never accepted from the caller; they are seeded from the role catalog.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
	TeamID   string `json:"teamId"`
}

// UpdateInput carries the mutable account fields. A role change re-seeds the
// permission set from the catalog.
type UpdateInput struct {
	Name   string `json:"name" validate:"omitempty,min=1,max=100"`
	Role   string `json:"role"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
	TeamID string `json:"teamId"`
}

// ListFilters narrow the user listing.
type ListFilters struct {
	Role   string
	Status string
	TeamID string
	Search string
	Page   int
	Limit  int
}
