package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Store keeps per-user sessions with lazy, read-time expiry. GetOrCreate
// never commits: a new or refreshed session only becomes visible to
// other turns after Put.
type Store interface {
	// GetOrCreate returns the stored session when present and unexpired
	// (with its expiry window refreshed), otherwise a fresh session.
	GetOrCreate(ctx context.Context, userID string) (*Session, error)
	// Put commits the session, overwriting any previous state.
	Put(ctx context.Context, userID string, s *Session) error
	// Remove deletes the session; absent sessions are not an error.
	Remove(ctx context.Context, userID string) error
	// WithLock serializes fn against other turns for the same user id.
	WithLock(userID string, fn func() error) error
	Close() error
}

// Driver names for the store factory.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var ErrInvalidDriver = errors.New("invalid session store driver")

// Config selects and parameterizes a store backend.
type Config struct {
	Driver  string
	Timeout time.Duration
	Redis   RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewStore builds a session store from config. Memory is the default;
// redis shares sessions across processes with the timeout as TTL.
func NewStore(cfg Config) (Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(cfg.Timeout), nil
	case DriverRedis:
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis session store requires an address")
		}
		return NewRedisStore(cfg.Redis, cfg.Timeout), nil
	default:
		return nil, ErrInvalidDriver
	}
}

// keyedLock hands out one mutex per user id so concurrent webhook
// deliveries for the same user serialize without blocking other users.
// Entries are reference counted and evicted once the last holder
// releases, so the map only ever holds users with a turn in flight.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*userLock)}
}

func (k *keyedLock) acquire(key string) *userLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &userLock{}
		k.locks[key] = l
	}
	l.refs++
	return l
}

func (k *keyedLock) release(key string, l *userLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLock) withLock(key string, fn func() error) error {
	l := k.acquire(key)
	l.Lock()
	defer func() {
		l.Unlock()
		k.release(key, l)
	}()
	return fn()
}

// size reports how many user ids currently hold a lock entry.
func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
