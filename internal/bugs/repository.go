package bugs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackhub/trackhub/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bugColumns = `id, title, description, status, priority, COALESCE(project_id::text, ''), creator_id, COALESCE(assignee_id::text, ''), created_at, updated_at`

// List returns one page of bugs matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Bug, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bugs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bugs: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := `SELECT ` + bugColumns + ` FROM bugs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, filters.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("bugs: list: %w", err)
	}
	defer rows.Close()

	var out []Bug
	for rows.Next() {
		bug, err := scanBug(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, bug)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByID loads one bug.
func (r *Repository) FindByID(ctx context.Context, id string) (*Bug, error) {
	bug, err := scanBug(r.pool.QueryRow(ctx, `SELECT `+bugColumns+` FROM bugs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bugs: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &bug, nil
}

// Insert stores a new bug.
func (r *Repository) Insert(ctx context.Context, bug *Bug) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bugs (id, title, description, status, priority, project_id, creator_id, assignee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, NULLIF($8, '')::uuid, $9, $10)`,
		bug.ID, bug.Title, bug.Description, bug.Status, bug.Priority, bug.ProjectID, bug.CreatorID, bug.AssigneeID, bug.CreatedAt, bug.UpdatedAt)
	if err != nil {
		return fmt.Errorf("bugs: insert: %w", err)
	}
	return nil
}

// Update persists mutable bug fields.
func (r *Repository) Update(ctx context.Context, bug *Bug) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bugs
		SET title = $2, description = $3, status = $4, priority = $5, project_id = NULLIF($6, '')::uuid, assignee_id = NULLIF($7, '')::uuid, updated_at = $8
		WHERE id = $1`,
		bug.ID, bug.Title, bug.Description, bug.Status, bug.Priority, bug.ProjectID, bug.AssigneeID, bug.UpdatedAt)
	if err != nil {
		return fmt.Errorf("bugs: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bugs: %w", httpx.ErrNotFound)
	}
	return nil
}

// Delete removes a bug.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bugs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bugs: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bugs: %w", httpx.ErrNotFound)
	}
	return nil
}

// CountByStatus aggregates bug counts per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM bugs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("bugs: count by status: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func buildWhere(filters ListFilters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filters.Status != "" {
		add(`status = $%d`, filters.Status)
	}
	if filters.Priority != "" {
		add(`priority = $%d`, filters.Priority)
	}
	if filters.ProjectID != "" {
		add(`project_id = $%d::uuid`, filters.ProjectID)
	}
	if filters.AssigneeID != "" {
		add(`assignee_id = $%d::uuid`, filters.AssigneeID)
	}
	if filters.CreatorID != "" {
		add(`creator_id = $%d`, filters.CreatorID)
	}
	if filters.Search != "" {
		args = append(args, filters.Search)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(`(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')`, n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanBug(row pgx.Row) (Bug, error) {
	var bug Bug
	err := row.Scan(&bug.ID, &bug.Title, &bug.Description, &bug.Status, &bug.Priority, &bug.ProjectID, &bug.CreatorID, &bug.AssigneeID, &bug.CreatedAt, &bug.UpdatedAt)
	return bug, err
}
