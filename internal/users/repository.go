package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const userColumns = `id, email, name, role, permissions, status, COALESCE(team_id::text, ''), password_hash, created_at, updated_at`

// List returns one page of users matching the filters plus the total count.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	where, args := buildWhere(filters)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	offset := (filters.Page - 1) * filters.Limit
	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, filters.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// FindByID loads one user.
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("users: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

// Insert stores a new user. A duplicate email maps to the duplicate sentinel.
func (r *Repository) Insert(ctx context.Context, user *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, permissions, status, team_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9, $10)`,
		user.ID, user.Email, user.Name, user.Role, user.Permissions, user.Status, user.TeamID, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("users: email already registered: %w", httpx.ErrDuplicate)
		}
		return fmt.Errorf("users: insert: %w", err)
	}
	return nil
}

// Update persists mutable account fields including the permission set.
func (r *Repository) Update(ctx context.Context, user *User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, role = $3, permissions = $4, status = $5, team_id = NULLIF($6, '')::uuid, updated_at = $7
		WHERE id = $1`,
		user.ID, user.Name, user.Role, user.Permissions, user.Status, user.TeamID, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: %w", httpx.ErrNotFound)
	}
	return nil
}

// Delete removes a user.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: %w", httpx.ErrNotFound)
	}
	return nil
}

// DisplayName resolves a user id to its display name.
func (r *Repository) DisplayName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("users: %w", httpx.ErrNotFound)
		}
		return "", err
	}
	return name, nil
}

func buildWhere(filters ListFilters) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filters.Role != "" {
		add(`role = $%d`, filters.Role)
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
		clauses = append(clauses, fmt.Sprintf(`(name ILIKE '%%' || $%d || '%%' OR email ILIKE '%%' || $%d || '%%')`, n, n))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.Permissions, &user.Status, &user.TeamID, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
