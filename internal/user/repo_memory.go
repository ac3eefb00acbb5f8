package user

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory user repository for tests and the
// STORE_BACKEND=memory mode.
type MemoryRepo struct {
	mu    sync.Mutex
	users map[string]User // by id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: map[string]User{}}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
