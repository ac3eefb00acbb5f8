package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresRepo persists users via database/sql (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, phone, COALESCE(email, ''), COALESCE(name, ''), COALESCE(avatar_url, ''), plan, trial_started_at, trial_ends_at, created_at, updated_at`

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	query := `
		INSERT INTO users (id, phone, email, name, avatar_url, plan, trial_started_at, trial_ends_at, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Phone, u.Email, u.Name, u.AvatarURL, u.Plan,
		u.TrialStartedAt, u.TrialEndsAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, phone))
}

func (r *PostgresRepo) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Phone,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.Plan,
		&u.TrialStartedAt,
		&u.TrialEndsAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
