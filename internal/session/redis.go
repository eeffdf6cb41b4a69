package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/prn-tf/warden/internal/domain"
)

const (
	sessionKeyPrefix = "warden:session:"
	lastSessionsKey  = "warden:sessions:last"
)

// RedisStore implements Store on Redis for deployments that already run
// one. Expiry is delegated to Redis key TTLs, so SweepExpired is a
// no-op; the last-session hash never expires, mirroring MemoryStore.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create issues a fresh session, invalidating the user's prior one.
func (r *RedisStore) Create(ctx context.Context, username string) (domain.Session, error) {
	if last, err := r.client.HGet(ctx, lastSessionsKey, username).Result(); err == nil && last != "" {
		if err := r.client.Del(ctx, sessionKey(last)).Err(); err != nil {
			return domain.Session{}, fmt.Errorf("invalidating prior session: %w", err)
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return domain.Session{}, fmt.Errorf("looking up prior session: %w", err)
	}

	s := domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: time.Now().Add(r.ttl),
	}
	if err := r.set(ctx, s, r.ttl); err != nil {
		return domain.Session{}, err
	}
	if err := r.client.HSet(ctx, lastSessionsKey, username, s.ID).Err(); err != nil {
		return domain.Session{}, fmt.Errorf("recording last session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) set(ctx context.Context, s domain.Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if ttl <= 0 {
		return r.client.Del(ctx, sessionKey(s.ID)).Err()
	}
	return r.client.Set(ctx, sessionKey(s.ID), payload, ttl).Err()
}

// GetValid returns the session snapshot and its validity atomically.
func (r *RedisStore) GetValid(ctx context.Context, id string) (domain.Session, bool, error) {
	payload, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("reading session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.Session{}, false, fmt.Errorf("decoding session: %w", err)
	}
	return s, s.ValidAt(time.Now()), nil
}

// GetByUsername returns the user's last known session and its validity.
func (r *RedisStore) GetByUsername(ctx context.Context, username string) (domain.Session, bool, error) {
	last, err := r.client.HGet(ctx, lastSessionsKey, username).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("looking up last session: %w", err)
	}
	return r.GetValid(ctx, last)
}

// IsValid reports whether the session exists and has not expired.
func (r *RedisStore) IsValid(ctx context.Context, id string) (bool, error) {
	_, ok, err := r.GetValid(ctx, id)
	return ok, err
}

// Remove deletes the session, keeping the last-session record.
func (r *RedisStore) Remove(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

// RemoveAllForUser deletes the user's last known session, valid or not.
func (r *RedisStore) RemoveAllForUser(ctx context.Context, username string) error {
	last, err := r.client.HGet(ctx, lastSessionsKey, username).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up last session: %w", err)
	}
	return r.client.Del(ctx, sessionKey(last)).Err()
}

// Replace overwrites the stored session preserving id and expiry.
func (r *RedisStore) Replace(ctx context.Context, s domain.Session) error {
	if old, ok, err := r.GetValid(ctx, s.ID); err != nil {
		return err
	} else if ok && old.Username != s.Username {
		if err := r.client.HDel(ctx, lastSessionsKey, old.Username).Err(); err != nil {
			return fmt.Errorf("dropping old last-session record: %w", err)
		}
	}
	if err := r.set(ctx, s, time.Until(s.ExpiresAt)); err != nil {
		return err
	}
	return r.client.HSet(ctx, lastSessionsKey, s.Username, s.ID).Err()
}

// SweepExpired is a no-op: Redis key TTLs expire sessions.
func (r *RedisStore) SweepExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// UsersWithExpiredLast returns usernames whose last session is gone.
func (r *RedisStore) UsersWithExpiredLast(ctx context.Context) ([]string, error) {
	last, err := r.client.HGetAll(ctx, lastSessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing last sessions: %w", err)
	}
	var users []string
	for username, id := range last {
		exists, err := r.client.Exists(ctx, sessionKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("checking session existence: %w", err)
		}
		if exists == 0 {
			users = append(users, username)
		}
	}
	return users, nil
}

// WasIssued reports whether id is or ever was a user's last session.
func (r *RedisStore) WasIssued(ctx context.Context, id string) (bool, error) {
	last, err := r.client.HGetAll(ctx, lastSessionsKey).Result()
	if err != nil {
		return false, fmt.Errorf("listing last sessions: %w", err)
	}
	for _, v := range last {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

// ActiveCount returns the number of live sessions.
func (r *RedisStore) ActiveCount(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scanning sessions: %w", err)
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

var _ Store = (*RedisStore)(nil)
