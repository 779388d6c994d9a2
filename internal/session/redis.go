package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	lockTTL time.Duration
	now     func() time.Time
}

func NewRedisStore(client redis.UniversalClient, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL, now: time.Now}
}

func (r *RedisStore) Create(ctx context.Context, s Session) (Session, error) {
	now := r.now().UTC()
	s.ID = ulid.Make().String()
	s.CreatedAt = now
	s.UpdatedAt = now

	data, err := json.Marshal(s)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return Session{}, fmt.Errorf("redis set failed: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("redis get failed: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return s, nil
}

// Save overwrites an existing session and extends its TTL. Expired sessions
// are not recreated.
func (r *RedisStore) Save(ctx context.Context, s Session) error {
	s.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	ok, err := r.client.SetXX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) AcquireSubmit(ctx context.Context, id string) (func(), error) {
	key := submitKey(id)
	token := ulid.Make().String()

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, ErrSubmitInProgress
	}

	release := func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err()
	}
	return release, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}

func submitKey(id string) string {
	return fmt.Sprintf("checkout:submit:%s", id)
}
