package inbox

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory inbox repository for tests and the
// STORE_BACKEND=memory mode. It enforces the same ownership and
// atomicity contract as the postgres implementation; the single mutex
// makes every method atomic.
type MemoryRepo struct {
	mu       sync.Mutex
	threads  map[string]Thread    // by thread id
	messages map[string][]Message // by thread id, append order
	drafts   map[string]Draft     // by thread id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		threads:  map[string]Thread{},
		messages: map[string][]Message{},
		drafts:   map[string]Draft{},
	}
}

func (r *MemoryRepo) CreateThread(ctx context.Context, th Thread, first *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[th.ID] = th
	if first != nil {
		r.messages[th.ID] = append(r.messages[th.ID], *first)
	}
	return nil
}

func (r *MemoryRepo) GetThread(ctx context.Context, userID, threadID string) (*Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	th, ok := r.threads[threadID]
	if !ok || th.UserID != userID {
		return nil, ErrNotFound
	}
	out := th
	return &out, nil
}

func (r *MemoryRepo) ListThreads(ctx context.Context, userID string, f ThreadFilter) ([]Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	out := make([]Thread, 0)
	for _, th := range r.threads {
		if th.UserID != userID {
			continue
		}
		if f.Channel != "" && th.Channel != f.Channel {
			continue
		}
		if f.Status != "" && th.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(th.ContactName), search) &&
			!strings.Contains(strings.ToLower(th.ContactHandle), search) {
			continue
		}
		out = append(out, th)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (r *MemoryRepo) DeleteThreadsByChannel(ctx context.Context, userID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, th := range r.threads {
		if th.UserID == userID && th.Channel == channel {
			delete(r.threads, id)
			delete(r.messages, id)
			delete(r.drafts, id)
		}
	}
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := make([]Message, len(r.messages[threadID]))
	copy(msgs, r.messages[threadID])
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
	return msgs, nil
}

func (r *MemoryRepo) LatestMessage(ctx context.Context, threadID string) (*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Message
	for i := range r.messages[threadID] {
		m := r.messages[threadID][i]
		if latest == nil || !m.SentAt.Before(latest.SentAt) {
			latest = &m
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (r *MemoryRepo) CountInbound(ctx context.Context, threadID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.messages[threadID] {
		if m.Direction == DirectionIn {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) AddOutboundMessage(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	th, ok := r.threads[msg.ThreadID]
	if !ok {
		return ErrNotFound
	}
	r.messages[msg.ThreadID] = append(r.messages[msg.ThreadID], msg)
	th.LastMessageAt = msg.SentAt
	th.Status = ThreadStatusOpen
	th.UpdatedAt = msg.SentAt
	r.threads[msg.ThreadID] = th
	return nil
}

func (r *MemoryRepo) SetThreadStatus(ctx context.Context, threadID, status string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	th, ok := r.threads[threadID]
	if !ok {
		return ErrNotFound
	}
	th.Status = status
	th.UpdatedAt = now
	r.threads[threadID] = th
	return nil
}

func (r *MemoryRepo) GetDraft(ctx context.Context, threadID string) (*Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[threadID]
	if !ok {
		return nil, nil
	}
	out := d
	return &out, nil
}

func (r *MemoryRepo) SaveDraft(ctx context.Context, d Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.ThreadID] = d
	return nil
}

func (r *MemoryRepo) DeleteDraft(ctx context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, threadID)
	return nil
}
