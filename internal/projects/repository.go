package projects

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

const projectColumns = `id, name, description, status, creator_id, COALESCE(team_id::text, ''), created_at, updated_at`

// List returns one page of projects matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Project, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("projects: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := `SELECT ` + projectColumns + ` FROM projects` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, filters.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("projects: list: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByID loads one project.
func (r *Repository) FindByID(ctx context.Context, id string) (*Project, error) {
	project, err := scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("projects: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &project, nil
}

// Insert stores a new project.
func (r *Repository) Insert(ctx context.Context, project *Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (id, name, description, status, creator_id, team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8)`,
		project.ID, project.Name, project.Description, project.Status, project.CreatorID, project.TeamID, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("projects: insert: %w", err)
	}
	return nil
}

// Update persists mutable project fields.
func (r *Repository) Update(ctx context.Context, project *Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects
		SET name = $2, description = $3, status = $4, team_id = NULLIF($5, '')::uuid, updated_at = $6
		WHERE id = $1`,
		project.ID, project.Name, project.Description, project.Status, project.TeamID, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("projects: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projects: %w", httpx.ErrNotFound)
	}
	return nil
}

// Delete removes a project.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("projects: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("projects: %w", httpx.ErrNotFound)
	}
	return nil
}

// Count returns the total number of projects.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&total); err != nil {
		return 0, fmt.Errorf("projects: count: %w", err)
	}
	return total, nil
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
	if filters.TeamID != "" {
		add(`team_id = $%d::uuid`, filters.TeamID)
	}
	if filters.Search != "" {
		args = append(args, filters.Search)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(`(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')`, n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProject(row pgx.Row) (Project, error) {
	var project Project
	err := row.Scan(&project.ID, &project.Name, &project.Description, &project.Status, &project.CreatorID, &project.TeamID, &project.CreatedAt, &project.UpdatedAt)
	return project, err
}
