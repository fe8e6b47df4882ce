package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aarogya-ai/aarogya/pkg/errorsx"
)

const redisKeyPrefix = "session:"

// redisStore shares sessions across processes. The session timeout
// doubles as the redis TTL, so redis evicts what the lazy read check
// would have discarded anyway.
type redisStore struct {
	client  *redis.Client
	timeout time.Duration
	locks   *keyedLock
	now     func() time.Time
}

func NewRedisStore(cfg RedisConfig, timeout time.Duration) Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisStore{
		client:  client,
		timeout: timeout,
		locks:   newKeyedLock(),
		now:     time.Now,
	}
}

func (s *redisStore) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	now := s.now()
	raw, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(now), nil
	}
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonSessionStore)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// Corrupt payload: treat like an absent session.
		return New(now), nil
	}
	if sess.Expired(now, s.timeout) {
		return New(now), nil
	}
	sess.Touch(now)
	return &sess, nil
}

func (s *redisStore) Put(ctx context.Context, userID string, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSessionStore)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+userID, raw, s.timeout).Err(); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSessionStore)
	}
	return nil
}

func (s *redisStore) Remove(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+userID).Err(); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonSessionStore)
	}
	return nil
}

// WithLock serializes turns within this process. Cross-process delivery
// for one user is already serialized by the provider's webhook retries.
func (s *redisStore) WithLock(userID string, fn func() error) error {
	return s.locks.withLock(userID, fn)
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
