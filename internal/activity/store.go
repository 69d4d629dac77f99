package activity

import (
	"context"
	"time"
)

// Filters narrows audit log listings and exports.
type Filters struct {
	Action       string
	ResourceType string
	Severity     string
	Status       string
	UserID       string
	StartDate    time.Time
	EndDate      time.Time
	Search       string
	Page         int
	Limit        int
}

// Stats aggregates entry counts for the dashboard.
type Stats struct {
	Total      int64            `json:"total"`
	BySeverity map[string]int64 `json:"bySeverity"`
	ByAction   map[string]int64 `json:"byAction"`
	ByStatus   map[string]int64 `json:"byStatus"`
}

// Store persists audit entries. Implementations: PGStore for the real
// datastore, MemoryStore for the degraded/offline mode.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filters Filters) ([]Entry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context) (Stats, error)
}
