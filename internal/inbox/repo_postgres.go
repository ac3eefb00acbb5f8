package inbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inbox-platform/pkg/utils"
)

// PostgresRepo persists threads, messages and drafts via database/sql
// (pgx stdlib driver). Multi-row writes run inside utils.WithTx so a
// partial failure rolls everything back.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const threadColumns = `id, user_id, channel, external_thread_id, contact_name, contact_handle, last_message_at, status, created_at, updated_at`
const messageColumns = `id, thread_id, channel, direction, body, COALESCE(media_url, ''), sent_at, status, created_at`

func (r *PostgresRepo) CreateThread(ctx context.Context, th Thread, first *Message) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO threads (id, user_id, channel, external_thread_id, contact_name, contact_handle, last_message_at, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			th.ID, th.UserID, th.Channel, th.ExternalThreadID, th.ContactName, th.ContactHandle,
			th.LastMessageAt, th.Status, th.CreatedAt, th.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert thread: %w", err)
		}
		if first != nil {
			if err := insertMessage(ctx, tx, *first); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepo) GetThread(ctx context.Context, userID, threadID string) (*Thread, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE id = $1 AND user_id = $2`,
		threadID, userID,
	)

	var th Thread
	err := row.Scan(
		&th.ID, &th.UserID, &th.Channel, &th.ExternalThreadID, &th.ContactName,
		&th.ContactHandle, &th.LastMessageAt, &th.Status, &th.CreatedAt, &th.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &th, nil
}

func (r *PostgresRepo) ListThreads(ctx context.Context, userID string, f ThreadFilter) ([]Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE user_id = $1`
	args := []any{userID}

	if f.Channel != "" {
		args = append(args, f.Channel)
		query += fmt.Sprintf(" AND channel = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		query += fmt.Sprintf(" AND (contact_name ILIKE $%d OR contact_handle ILIKE $%d)", len(args), len(args))
	}
	query += ` ORDER BY last_message_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	threads := make([]Thread, 0)
	for rows.Next() {
		var th Thread
		if err := rows.Scan(
			&th.ID, &th.UserID, &th.Channel, &th.ExternalThreadID, &th.ContactName,
			&th.ContactHandle, &th.LastMessageAt, &th.Status, &th.CreatedAt, &th.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return threads, nil
}

func (r *PostgresRepo) DeleteThreadsByChannel(ctx context.Context, userID, channel string) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		return deleteThreadsByChannel(ctx, tx, userID, channel)
	})
}

// deleteThreadsByChannel removes a user's threads on one channel plus
// their messages and drafts. Exported to the connections repository via
// PurgeChannelThreads so a connection delete can share the transaction.
func deleteThreadsByChannel(ctx context.Context, tx *sql.Tx, userID, channel string) error {
	const sub = `SELECT id FROM threads WHERE user_id = $1 AND channel = $2`

	if _, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE thread_id IN (`+sub+`)`, userID, channel); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id IN (`+sub+`)`, userID, channel); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE user_id = $1 AND channel = $2`, userID, channel); err != nil {
		return fmt.Errorf("delete threads: %w", err)
	}
	return nil
}

// PurgeChannelThreads runs the thread cascade inside an existing
// transaction owned by the caller.
func PurgeChannelThreads(ctx context.Context, tx *sql.Tx, userID, channel string) error {
	return deleteThreadsByChannel(ctx, tx, userID, channel)
}

func (r *PostgresRepo) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE thread_id = $1 ORDER BY sent_at ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.ThreadID, &m.Channel, &m.Direction, &m.Body,
			&m.MediaURL, &m.SentAt, &m.Status, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (r *PostgresRepo) LatestMessage(ctx context.Context, threadID string) (*Message, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE thread_id = $1 ORDER BY sent_at DESC LIMIT 1`,
		threadID,
	)

	var m Message
	err := row.Scan(
		&m.ID, &m.ThreadID, &m.Channel, &m.Direction, &m.Body,
		&m.MediaURL, &m.SentAt, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest message: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepo) CountInbound(ctx context.Context, threadID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE thread_id = $1 AND direction = $2`,
		threadID, DirectionIn,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count inbound: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) AddOutboundMessage(ctx context.Context, msg Message) error {
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE threads SET last_message_at = $1, status = $2, updated_at = $1 WHERE id = $3`,
			msg.SentAt, ThreadStatusOpen, msg.ThreadID,
		)
		if err != nil {
			return fmt.Errorf("bump thread: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func insertMessage(ctx context.Context, tx *sql.Tx, m Message) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, thread_id, channel, direction, body, media_url, sent_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		m.ID, m.ThreadID, m.Channel, m.Direction, m.Body, m.MediaURL, m.SentAt, m.Status, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetThreadStatus(ctx context.Context, threadID, status string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE threads SET status = $1, updated_at = $2 WHERE id = $3`,
		status, now, threadID,
	)
	if err != nil {
		return fmt.Errorf("set thread status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetDraft(ctx context.Context, threadID string) (*Draft, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, thread_id, content, updated_at FROM drafts WHERE thread_id = $1`,
		threadID,
	)

	var d Draft
	err := row.Scan(&d.ID, &d.ThreadID, &d.Content, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepo) SaveDraft(ctx context.Context, d Draft) error {
	// thread_id is unique, so the upsert keeps at most one draft per thread.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO drafts (id, thread_id, content, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (thread_id) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		d.ID, d.ThreadID, d.Content, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *PostgresRepo) DeleteDraft(ctx context.Context, threadID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
