// Package activity implements the audit pipeline: request classification,
// sensitive-field filtering, per-source rate limiting, and entry persistence.
package activity

import "time"

// Severity levels for audit entries.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Outcome status for audit entries.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusPending = "pending"
)

// Log levels for the late-stage filter, ordered by weight.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Display names used when no actor can be resolved.
const (
	ActorAnonymous = "anonymous"
	ActorUnknown   = "unknown"
)

// Details holds the filtered request/response context embedded in an entry.
type Details struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Query      any    `json:"query,omitempty"`
	Body       any    `json:"body,omitempty"`
	Response   any    `json:"response,omitempty"`
	DurationMS int64  `json:"durationMs"`
	UserAgent  string `json:"userAgent,omitempty"`
	SourceAddr string `json:"sourceAddr,omitempty"`
	LogLevel   string `json:"logLevel"`
}

// Entry is one persisted record of a classified mutating request. Entries are
// written exactly once and never updated; the only later mutation is bulk
// deletion by the retention job.
type Entry struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actorId,omitempty"`
	ActorName    string    `json:"actorName"`
	Action       string    `json:"action"`
	Description  string    `json:"description"`
	Details      Details   `json:"details"`
	ResourceType string    `json:"resourceType,omitempty"`
	ResourceID   string    `json:"resourceId,omitempty"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

var levelWeights = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// levelAtLeast reports whether level meets the configured minimum. Unknown
// levels are treated as INFO.
func levelAtLeast(level, min string) bool {
	lw, ok := levelWeights[level]
	if !ok {
		lw = levelWeights[LevelInfo]
	}
	mw, ok := levelWeights[min]
	if !ok {
		mw = levelWeights[LevelInfo]
	}
	return lw >= mw
}
