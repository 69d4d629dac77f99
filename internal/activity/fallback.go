package activity

import (
	"context"
	"log/slog"
	"time"
)

// FallbackStore writes through to a primary store and diverts entries into a
// bounded in-memory buffer when the primary is unavailable. Reads prefer the
// primary and only surface the buffer when the primary cannot answer, so the
// audit trail stays queryable across a database outage.
type FallbackStore struct {
	primary Store
	buffer  *MemoryStore
	logger  *slog.Logger
}

// NewFallbackStore wraps primary with an in-memory buffer of at most cap
// entries.
func NewFallbackStore(primary Store, cap int, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{primary: primary, buffer: NewMemoryStore(cap), logger: logger}
}

// Insert writes to the primary store, buffering in memory on failure.
func (s *FallbackStore) Insert(ctx context.Context, entry Entry) error {
	if err := s.primary.Insert(ctx, entry); err != nil {
		s.logger.Warn("audit store unavailable, buffering entry in memory", slog.Any("error", err))
		return s.buffer.Insert(ctx, entry)
	}
	return nil
}

// List queries the primary store, falling back to the buffer on failure.
func (s *FallbackStore) List(ctx context.Context, filters Filters) ([]Entry, int, error) {
	entries, total, err := s.primary.List(ctx, filters)
	if err != nil {
		return s.buffer.List(ctx, filters)
	}
	return entries, total, nil
}

// DeleteOlderThan sweeps both the primary store and the buffer.
func (s *FallbackStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	buffered, _ := s.buffer.DeleteOlderThan(ctx, cutoff)
	removed, err := s.primary.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return buffered, err
	}
	return removed + buffered, nil
}

// Stats aggregates from the primary store, falling back to the buffer.
func (s *FallbackStore) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.primary.Stats(ctx)
	if err != nil {
		return s.buffer.Stats(ctx)
	}
	return stats, nil
}

// Buffered reports how many entries are currently held in memory.
func (s *FallbackStore) Buffered() int {
	return s.buffer.Len()
}
