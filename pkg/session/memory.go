package session

import (
	"context"
	"sync"
	"time"
)

// memoryStore is the default single-process backend. Expiry is evaluated
// lazily on read; there is no background eviction.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
	locks    *keyedLock
	now      func() time.Time
}

func NewMemoryStore(timeout time.Duration) Store {
	return NewMemoryStoreWithClock(timeout, time.Now)
}

// NewMemoryStoreWithClock is NewMemoryStore with an injectable clock.
func NewMemoryStoreWithClock(timeout time.Duration, now func() time.Time) Store {
	return &memoryStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		locks:    newKeyedLock(),
		now:      now,
	}
}

func (s *memoryStore) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	now := s.now()
	s.mu.RLock()
	stored, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok && !stored.Expired(now, s.timeout) {
		cp := clone(stored)
		cp.Touch(now)
		return cp, nil
	}
	return New(now), nil
}

func (s *memoryStore) Put(ctx context.Context, userID string, sess *Session) error {
	s.mu.Lock()
	s.sessions[userID] = clone(sess)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Remove(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) WithLock(userID string, fn func() error) error {
	return s.locks.withLock(userID, fn)
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()
	return nil
}

// clone keeps stored state isolated from the caller's working copy so a
// turn that fails midway never half-mutates the committed session.
func clone(sess *Session) *Session {
	cp := *sess
	cp.History = make([]Turn, len(sess.History))
	copy(cp.History, sess.History)
	return &cp
}
