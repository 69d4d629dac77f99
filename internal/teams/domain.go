// Package teams manages teams users and projects belong to.
package teams

import "time"

// Team represents one team.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	LeadID      string    `json:"leadId,omitempty"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateInput carries the fields accepted on team creation.
type CreateInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
	LeadID      string `json:"leadId"`
}

// UpdateInput carries the mutable team fields.
type UpdateInput struct {
	Name        string `json:"name" validate:"omitempty,min=1,max=100"`
	Description string `json:"description" validate:"max=2000"`
	LeadID      string `json:"leadId"`
}
