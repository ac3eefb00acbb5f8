package connections

import (
	"context"
	"sync"
	"time"

	"inbox-platform/internal/channels"
)

// ThreadPurger is the slice of the inbox repository the cascade needs.
type ThreadPurger interface {
	DeleteThreadsByChannel(ctx context.Context, userID, channel string) error
}

type MemoryRepo struct {
	mu      sync.Mutex
	conns   map[string]Connection
	threads ThreadPurger
}

func NewMemoryRepo(threads ThreadPurger) *MemoryRepo {
	return &MemoryRepo{
		conns:   make(map[string]Connection),
		threads: threads,
	}
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Connection, 0)
	for _, c := range r.conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok || c.UserID != userID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryRepo) FindByType(ctx context.Context, userID, connType string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conns {
		if c.UserID == userID && c.Type == connType {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepo) Create(ctx context.Context, c Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID] = c
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, c Connection) error {
	if err := r.threads.DeleteThreadsByChannel(ctx, c.UserID, channels.ChannelForType(c.Type)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c.ID)
	return nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, id, status string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = now
	r.conns[id] = c
	return nil
}
