package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trackhub/trackhub/internal/platform/db"
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

const teamColumns = `id, name, description, COALESCE(lead_id::text, ''), creator_id, created_at, updated_at`

// List returns all teams ordered by name.
func (r *Repository) List(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("teams: list: %w", err)
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID loads one team.
func (r *Repository) FindByID(ctx context.Context, id string) (*Team, error) {
	team, err := scanTeam(r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("teams: %w", httpx.ErrNotFound)
		}
		return nil, err
	}
	return &team, nil
}

// Insert stores a new team. Team names are unique.
func (r *Repository) Insert(ctx context.Context, team *Team) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teams (id, name, description, lead_id, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)`,
		team.ID, team.Name, team.Description, team.LeadID, team.CreatorID, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("teams: name already taken: %w", httpx.ErrDuplicate)
		}
		return fmt.Errorf("teams: insert: %w", err)
	}
	return nil
}

// Update persists mutable team fields.
func (r *Repository) Update(ctx context.Context, team *Team) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE teams
		SET name = $2, description = $3, lead_id = NULLIF($4, '')::uuid, updated_at = $5
		WHERE id = $1`,
		team.ID, team.Name, team.Description, team.LeadID, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("teams: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("teams: %w", httpx.ErrNotFound)
	}
	return nil
}

// Delete removes a team and detaches its members in the same transaction so
// no user is left pointing at a deleted team.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET team_id = NULL WHERE team_id = $1`, id); err != nil {
			return fmt.Errorf("teams: detach members: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("teams: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("teams: %w", httpx.ErrNotFound)
		}
		return nil
	})
}

func scanTeam(row pgx.Row) (Team, error) {
	var team Team
	err := row.Scan(&team.ID, &team.Name, &team.Description, &team.LeadID, &team.CreatorID, &team.CreatedAt, &team.UpdatedAt)
	return team, err
}
