package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

type lease struct {
	token   string
	expires time.Time
}

// LockManager is an in-process domain.LockManager with TTL semantics.
type LockManager struct {
	mu    sync.Mutex
	now   func() time.Time
	locks map[string]lease
}

// NewLockManager creates a LockManager.
func NewLockManager() *LockManager {
	return &LockManager{now: time.Now, locks: make(map[string]lease)}
}

func (lm *LockManager) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	now := lm.now()
	if l, ok := lm.locks[key]; ok && now.Before(l.expires) {
		return nil, domain.ErrLockHeld
	}
	token := uuid.NewString()
	lm.locks[key] = lease{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			lm.mu.Lock()
			defer lm.mu.Unlock()
			if lm.locks[key].token == token {
				delete(lm.locks, key)
			}
		})
	}, nil
}

func (lm *LockManager) Extend(_ context.Context, key string, ttl time.Duration) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	now := lm.now()
	l, ok := lm.locks[key]
	if !ok || !now.Before(l.expires) {
		return fmt.Errorf("memory: extend lock %s: %w", key, domain.ErrLockHeld)
	}
	l.expires = now.Add(ttl)
	lm.locks[key] = l
	return nil
}

// RateLimiter is an in-process sliding window domain.RateLimiter.
type RateLimiter struct {
	mu   sync.Mutex
	now  func() time.Time
	hits map[string][]time.Time
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{now: time.Now, hits: make(map[string][]time.Time)}
}

func (rl *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	cutoff := now.Add(-window)

	hits := rl.hits[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	if len(hits) >= limit {
		rl.hits[key] = hits
		return false, nil
	}
	rl.hits[key] = append(hits, now)
	return true, nil
}

var (
	_ domain.LockManager = (*LockManager)(nil)
	_ domain.RateLimiter = (*RateLimiter)(nil)
)
