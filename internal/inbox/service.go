package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inbox-platform/internal/channels"
	"inbox-platform/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidRequest = errors.New("inbox: invalid request")
	ErrNotFound       = errors.New("inbox: thread not found")
)

// Service implements thread, message and draft operations.
//
// Contract:
// - Every operation is scoped to the calling user; a thread id that is
//   not owned by the caller behaves exactly like a missing one.
// - Sending always reopens the thread, even from DONE.
// - The unread counter counts ALL inbound messages, not actually-unread
//   ones. That matches the legacy behavior the frontend was built
//   against; the property is pinned by a test so a future fix is a
//   deliberate change.
type Service struct {
	repo    Repository
	gateway channels.Gateway
	clock   func() time.Time
}

func NewService(repo Repository, gateway channels.Gateway) *Service {
	return &Service{repo: repo, gateway: gateway, clock: time.Now}
}

// ListThreads returns the user's threads matching f, newest activity
// first, each enriched with its latest message and unread counter.
func (s *Service) ListThreads(ctx context.Context, userID string, f ThreadFilter) ([]ThreadView, error) {
	threads, err := s.repo.ListThreads(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	views := make([]ThreadView, 0, len(threads))
	for _, th := range threads {
		view := ThreadView{Thread: th}

		last, err := s.repo.LatestMessage(ctx, th.ID)
		if err != nil {
			return nil, fmt.Errorf("latest message for thread %s: %w", th.ID, err)
		}
		if last != nil {
			view.LastMessage = last.Body
			view.LastMessageTime = last.SentAt.Format("15:04")
		}

		unread, err := s.repo.CountInbound(ctx, th.ID)
		if err != nil {
			return nil, fmt.Errorf("unread count for thread %s: %w", th.ID, err)
		}
		view.UnreadCount = unread
		view.Unread = unread > 0

		views = append(views, view)
	}
	return views, nil
}

// ListMessages returns a thread and its messages, oldest first.
func (s *Service) ListMessages(ctx context.Context, userID, threadID string) (*Thread, []Message, error) {
	th, err := s.repo.GetThread(ctx, userID, threadID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	return th, msgs, nil
}

// SendMessage appends an outbound message and reopens the thread.
func (s *Service) SendMessage(ctx context.Context, userID, threadID, body string) (*Message, error) {
	if body == "" {
		return nil, ErrInvalidRequest
	}

	th, err := s.repo.GetThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		ThreadID:  th.ID,
		Channel:   th.Channel,
		Direction: DirectionOut,
		Body:      body,
		SentAt:    now,
		Status:    MessageStatusSent,
		CreatedAt: now,
	}
	if err := s.repo.AddOutboundMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store outbound message: %w", err)
	}

	// External delivery is simulated; a failure here must not undo the
	// committed write, so it is only logged.
	if err := s.gateway.Send(ctx, th.Channel, th.ExternalThreadID, body); err != nil {
		logger.From(ctx).Error("outbound dispatch failed", "thread_id", th.ID, "err", err)
	}

	return &msg, nil
}

// UpdateStatus sets the thread status. Any status is reachable from any
// other; there are no transition restrictions.
func (s *Service) UpdateStatus(ctx context.Context, userID, threadID, status string) (*Thread, error) {
	if !ValidThreadStatus(status) {
		return nil, ErrInvalidRequest
	}

	th, err := s.repo.GetThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	if err := s.repo.SetThreadStatus(ctx, th.ID, status, now); err != nil {
		return nil, fmt.Errorf("set thread status: %w", err)
	}

	th.Status = status
	th.UpdatedAt = now
	return th, nil
}

// GetDraft returns the thread's draft, or nil when none is saved.
func (s *Service) GetDraft(ctx context.Context, userID, threadID string) (*Draft, error) {
	if _, err := s.repo.GetThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	d, err := s.repo.GetDraft(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// UpsertDraft creates or overwrites the thread's draft. Empty content is
// allowed and acts as a cleared-but-present draft.
func (s *Service) UpsertDraft(ctx context.Context, userID, threadID, content string) (*Draft, error) {
	if _, err := s.repo.GetThread(ctx, userID, threadID); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	existing, err := s.repo.GetDraft(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	d := Draft{ThreadID: threadID, Content: content, UpdatedAt: now}
	if existing != nil {
		d.ID = existing.ID
	} else {
		d.ID = uuid.NewString()
	}
	if err := s.repo.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &d, nil
}

// DeleteDraft removes the thread's draft. Deleting an absent draft is
// not an error.
func (s *Service) DeleteDraft(ctx context.Context, userID, threadID string) error {
	if _, err := s.repo.GetThread(ctx, userID, threadID); err != nil {
		return err
	}
	if err := s.repo.DeleteDraft(ctx, threadID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
