package activity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the bounded in-memory fallback used when no database is
// configured. Once the cap is exceeded the buffer is trimmed to the most
// recent half of the cap to bound memory use.
type MemoryStore struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
}

// NewMemoryStore constructs a MemoryStore holding at most cap entries.
func NewMemoryStore(cap int) *MemoryStore {
	if cap <= 0 {
		cap = 1000
	}
	return &MemoryStore{cap: cap}
}

// Insert appends an entry, newest first.
func (s *MemoryStore) Insert(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap/2]
	}
	return nil
}

// List returns matching entries with paging, newest first.
func (s *MemoryStore) List(_ context.Context, filters Filters) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for _, entry := range s.entries {
		if matches(entry, filters) {
			matched = append(matched, entry)
		}
	}
	total := len(matched)

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []Entry{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := make([]Entry, end-start)
	copy(out, matched[start:end])
	return out, total, nil
}

// DeleteOlderThan drops entries created before cutoff.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	var removed int64
	for _, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept
	return removed, nil
}

// Stats aggregates counts over the buffer.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{
		BySeverity: make(map[string]int64),
		ByAction:   make(map[string]int64),
		ByStatus:   make(map[string]int64),
	}
	for _, entry := range s.entries {
		stats.Total++
		stats.BySeverity[entry.Severity]++
		stats.ByAction[entry.Action]++
		stats.ByStatus[entry.Status]++
	}
	return stats, nil
}

// Len reports the current buffer size.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func matches(entry Entry, filters Filters) bool {
	if filters.Action != "" && entry.Action != filters.Action {
		return false
	}
	if filters.ResourceType != "" && entry.ResourceType != filters.ResourceType {
		return false
	}
	if filters.Severity != "" && entry.Severity != filters.Severity {
		return false
	}
	if filters.Status != "" && entry.Status != filters.Status {
		return false
	}
	if filters.UserID != "" && entry.ActorID != filters.UserID {
		return false
	}
	if !filters.StartDate.IsZero() && entry.CreatedAt.Before(filters.StartDate) {
		return false
	}
	if !filters.EndDate.IsZero() && entry.CreatedAt.After(filters.EndDate) {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(entry.Description), needle) &&
			!strings.Contains(strings.ToLower(entry.Action), needle) &&
			!strings.Contains(strings.ToLower(entry.ActorName), needle) {
			return false
		}
	}
	return true
}
