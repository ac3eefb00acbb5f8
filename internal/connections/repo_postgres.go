package connections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inbox-platform/internal/channels"
	"inbox-platform/internal/inbox"
	"inbox-platform/pkg/utils"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const connectionColumns = `id, user_id, type, status, COALESCE(token_ref, ''), COALESCE(metadata, '{}'), created_at, updated_at`

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	out := make([]Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, userID, id string) (*Connection, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE id = $1 AND user_id = $2`, id, userID)
	return scanOneConnection(row)
}

func (r *PostgresRepo) FindByType(ctx context.Context, userID, connType string) (*Connection, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE user_id = $1 AND type = $2`, userID, connType)
	return scanOneConnection(row)
}

func (r *PostgresRepo) Create(ctx context.Context, c Connection) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO connections (id, user_id, type, status, token_ref, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
		c.ID, c.UserID, c.Type, c.Status, c.TokenRef, meta, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

// Delete removes the connection together with its channel's threads,
// messages and drafts in one transaction.
func (r *PostgresRepo) Delete(ctx context.Context, c Connection) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := inbox.PurgeChannelThreads(ctx, tx, c.UserID, channels.ChannelForType(c.Type)); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM connections WHERE id = $1 AND user_id = $2`, c.ID, c.UserID)
		if err != nil {
			return fmt.Errorf("delete connection: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepo) SetStatus(ctx context.Context, id, status string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE connections SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, now,
	)
	if err != nil {
		return fmt.Errorf("update connection status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (Connection, error) {
	var c Connection
	var meta []byte
	err := row.Scan(&c.ID, &c.UserID, &c.Type, &c.Status, &c.TokenRef, &meta, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Connection{}, fmt.Errorf("scan connection: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return Connection{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return c, nil
}

func scanOneConnection(row *sql.Row) (*Connection, error) {
	c, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
