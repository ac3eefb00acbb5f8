package inbox

import (
	"context"
	"time"
)

// Repository is the persistence contract for threads, messages and drafts.
//
// Ownership invariant: GetThread filters by user, so every service
// operation that starts with an ownership check stays user-scoped even if
// a caller guesses a foreign thread id.
//
// Atomicity invariant: AddOutboundMessage writes the message AND bumps
// the parent thread (last_message_at, status=OPEN) as one unit; a partial
// write must not be observable.
type Repository interface {
	// CreateThread inserts a thread, optionally with an initial message.
	CreateThread(ctx context.Context, th Thread, first *Message) error

	// GetThread returns the thread only when owned by userID,
	// ErrNotFound otherwise.
	GetThread(ctx context.Context, userID, threadID string) (*Thread, error)

	// ListThreads returns the user's threads matching f, ordered by
	// last_message_at descending.
	ListThreads(ctx context.Context, userID string, f ThreadFilter) ([]Thread, error)

	// DeleteThreadsByChannel removes the user's threads on a channel,
	// cascading to their messages and drafts.
	DeleteThreadsByChannel(ctx context.Context, userID, channel string) error

	// ListMessages returns a thread's messages ordered by sent_at ascending.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)

	// LatestMessage returns the most recent message, nil when none exist.
	LatestMessage(ctx context.Context, threadID string) (*Message, error)

	// CountInbound counts the thread's inbound messages.
	CountInbound(ctx context.Context, threadID string) (int, error)

	// AddOutboundMessage appends msg and bumps its thread to
	// last_message_at=msg.SentAt, status=OPEN, atomically.
	AddOutboundMessage(ctx context.Context, msg Message) error

	// SetThreadStatus sets the status and stamps updated_at.
	SetThreadStatus(ctx context.Context, threadID, status string, now time.Time) error

	// GetDraft returns the thread's draft, nil when none exists.
	GetDraft(ctx context.Context, threadID string) (*Draft, error)

	// SaveDraft creates or overwrites the thread's draft.
	SaveDraft(ctx context.Context, d Draft) error

	// DeleteDraft removes the thread's draft. No-op when absent.
	DeleteDraft(ctx context.Context, threadID string) error
}
