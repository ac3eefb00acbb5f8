package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "otp:"

// RedisStore keeps pending passcodes in redis with a per-key TTL matching
// the record expiry. Redis evicts expired entries on its own, so no
// sweeper is needed; a record that redis already dropped reads as absent,
// which the auth service reports the same way as an expired one.
type RedisStore struct {
	rdb   *redis.Client
	clock func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, clock: time.Now}
}

func (s *RedisStore) Put(ctx context.Context, phone string, rec Record) error {
	ttl := rec.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		// Already expired; storing it would be a pointless write.
		return s.Delete(ctx, phone)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+phone, b, ttl).Err(); err != nil {
		return fmt.Errorf("store otp record: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, phone string) (Record, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+phone).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("load otp record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode otp record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := s.rdb.Del(ctx, redisKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("delete otp record: %w", err)
	}
	return nil
}
