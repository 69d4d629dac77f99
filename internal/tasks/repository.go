package tasks

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

const taskColumns = `id, title, description, status, priority, COALESCE(project_id::text, ''), creator_id, COALESCE(assignee_id::text, ''), due_date, created_at, updated_at`

// List returns one page of tasks matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Task, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tasks: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := `SELECT ` + taskColumns + ` FROM tasks` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, filters.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("tasks: list: %w", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByID loads one task.
func (r *Repository) FindByID(ctx context.Context, id string) (*Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tasks: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &task, nil
}

// Insert stores a new task.
func (r *Repository) Insert(ctx context.Context, task *Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, project_id, creator_id, assignee_id, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, NULLIF($8, '')::uuid, $9, $10, $11)`,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.ProjectID, task.CreatorID, task.AssigneeID, task.DueDate, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tasks: insert: %w", err)
	}
	return nil
}

// Update persists mutable task fields.
func (r *Repository) Update(ctx context.Context, task *Task) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, project_id = NULLIF($6, '')::uuid, assignee_id = NULLIF($7, '')::uuid, due_date = $8, updated_at = $9
		WHERE id = $1`,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.ProjectID, task.AssigneeID, task.DueDate, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("tasks: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tasks: %w", httpx.ErrNotFound)
	}
	return nil
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tasks: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tasks: %w", httpx.ErrNotFound)
	}
	return nil
}

// CountByStatus aggregates task counts per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("tasks: count by status: %w", err)
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

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &task.ProjectID, &task.CreatorID, &task.AssigneeID, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}
