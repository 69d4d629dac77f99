package activity

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/trackhub/trackhub/internal/shared"
)

// Export bounds.
const (
	DefaultExportLimit = 10000
	maxExportLimit     = 50000
)

// DefaultRetentionDays is the single configured retention default applied
// when a cleanup request does not specify daysToKeep.
const DefaultRetentionDays = 90

// ListResult bundles a page of entries with paging metadata.
type ListResult struct {
	Logs       []Entry           `json:"logs"`
	Pagination shared.Pagination `json:"pagination"`
}

// ExportResult carries an encoded export plus the counts surfaced as
// response headers.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
	Total       int
	Exported    int
}

// Service answers queries over persisted audit entries.
type Service struct {
	store Store
}

// NewService constructs a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns one page of entries matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	entries, total, err := s.store.List(ctx, filters)
	if err != nil {
		return ListResult{}, fmt.Errorf("activity: list: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return ListResult{
		Logs:       entries,
		Pagination: shared.NewPagination(filters.Page, filters.Limit, total),
	}, nil
}

// Export encodes matching entries as CSV or JSON. The limit defaults to
// DefaultExportLimit to bound response size.
func (s *Service) Export(ctx context.Context, filters Filters, format string, limit int) (ExportResult, error) {
	if limit <= 0 {
		limit = DefaultExportLimit
	}
	if limit > maxExportLimit {
		limit = maxExportLimit
	}
	filters.Page = 1
	filters.Limit = limit
	entries, total, err := s.store.List(ctx, filters)
	if err != nil {
		return ExportResult{}, fmt.Errorf("activity: export: %w", err)
	}

	result := ExportResult{Total: total, Exported: len(entries)}
	switch format {
	case "json":
		data, err := json.Marshal(entries)
		if err != nil {
			return ExportResult{}, fmt.Errorf("activity: encode json export: %w", err)
		}
		result.ContentType = "application/json"
		result.Filename = "activity-logs.json"
		result.Data = data
	default:
		data, err := encodeCSV(entries)
		if err != nil {
			return ExportResult{}, fmt.Errorf("activity: encode csv export: %w", err)
		}
		result.ContentType = "text/csv; charset=utf-8"
		result.Filename = "activity-logs.csv"
		result.Data = data
	}
	return result, nil
}

// Cleanup deletes entries older than daysToKeep days. Non-positive values
// fall back to the configured retention default.
func (s *Service) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		daysToKeep = DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("activity: cleanup: %w", err)
	}
	return removed, nil
}

// Stats aggregates entry counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

func encodeCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"id", "createdAt", "actorId", "actorName", "action", "description", "resourceType", "resourceId", "severity", "status", "method", "path", "durationMs", "sourceAddr"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		record := []string{
			entry.ID,
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.ActorID,
			entry.ActorName,
			entry.Action,
			entry.Description,
			entry.ResourceType,
			entry.ResourceID,
			entry.Severity,
			entry.Status,
			entry.Details.Method,
			entry.Details.Path,
			strconv.FormatInt(entry.Details.DurationMS, 10),
			entry.Details.SourceAddr,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
