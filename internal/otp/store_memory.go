package otp

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps pending passcodes in a mutex-guarded map.
// Entries for the same phone overwrite each other, so the map is bounded
// by the number of distinct phones; the sweeper removes expired leftovers
// that were never verified.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}}
}

func (s *MemoryStore) Put(ctx context.Context, phone string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[phone] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, phone string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[phone]
	return rec, ok, nil
}

func (s *MemoryStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, phone)
	return nil
}

// Sweep removes entries whose expiry is at or before now and reports how
// many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for phone, rec := range s.records {
		if !rec.ExpiresAt.After(now) {
			delete(s.records, phone)
			removed++
		}
	}
	return removed
}

// Len reports the number of pending entries. Intended for tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StartSweeper runs Sweep every interval until ctx is canceled.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := s.Sweep(now); removed > 0 {
					log.Debug("otp sweep", "removed", removed)
				}
			}
		}
	}()
}
