package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists audit entries in the activity_logs table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a store backed by the provided pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert writes one entry. Details are stored as JSONB.
func (s *PGStore) Insert(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("activity: marshal details: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO activity_logs
			(id, actor_id, actor_name, action, description, details, resource_type, resource_id, severity, status, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)`,
		entry.ID, entry.ActorID, entry.ActorName, entry.Action, entry.Description,
		details, entry.ResourceType, entry.ResourceID, entry.Severity, entry.Status, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("activity: insert entry: %w", err)
	}
	return nil
}

// List returns matching entries with paging, newest first, plus the total
// match count.
func (s *PGStore) List(ctx context.Context, filters Filters) ([]Entry, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("activity: count entries: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := `
		SELECT id, COALESCE(actor_id, ''), actor_name, action, description, details,
		       COALESCE(resource_type, ''), COALESCE(resource_id, ''), severity, status, created_at
		FROM activity_logs` + where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("activity: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// DeleteOlderThan removes entries created before cutoff and reports the count.
func (s *PGStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM activity_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("activity: delete old entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Stats aggregates entry counts by severity, action, and status.
func (s *PGStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		BySeverity: make(map[string]int64),
		ByAction:   make(map[string]int64),
		ByStatus:   make(map[string]int64),
	}
	rows, err := s.pool.Query(ctx, `SELECT severity, action, status, COUNT(*) FROM activity_logs GROUP BY severity, action, status`)
	if err != nil {
		return Stats{}, fmt.Errorf("activity: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity, action, status string
		var count int64
		if err := rows.Scan(&severity, &action, &status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		stats.BySeverity[severity] += count
		stats.ByAction[action] += count
		stats.ByStatus[status] += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func buildWhere(filters Filters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filters.Action != "" {
		add("action = $%d", filters.Action)
	}
	if filters.ResourceType != "" {
		add("resource_type = $%d", filters.ResourceType)
	}
	if filters.Severity != "" {
		add("severity = $%d", filters.Severity)
	}
	if filters.Status != "" {
		add("status = $%d", filters.Status)
	}
	if filters.UserID != "" {
		add("actor_id = $%d", filters.UserID)
	}
	if !filters.StartDate.IsZero() {
		add("created_at >= $%d", filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		add("created_at <= $%d", filters.EndDate)
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		clauses = append(clauses, "(description ILIKE $"+n+" OR action ILIKE $"+n+" OR actor_name ILIKE $"+n+")")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, clause := range clauses[1:] {
		where += " AND " + clause
	}
	return where, args
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var details []byte
	err := row.Scan(&entry.ID, &entry.ActorID, &entry.ActorName, &entry.Action, &entry.Description,
		&details, &entry.ResourceType, &entry.ResourceID, &entry.Severity, &entry.Status, &entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("activity: scan entry: %w", err)
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return Entry{}, fmt.Errorf("activity: unmarshal details: %w", err)
		}
	}
	return entry, nil
}
