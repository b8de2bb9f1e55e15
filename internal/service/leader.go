package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// SimulationLockKey is the lock that elects the node driving the simulation.
const SimulationLockKey = "simulation:driver"

// Leader keeps at most one node per cluster driving the simulation. The
// holder renews its lock every ttl/3 and steps down when renewal fails.
type Leader struct {
	locks     domain.LockManager
	key       string
	ttl       time.Duration
	onElected func()
	onDemoted func()
	logger    *slog.Logger

	leading atomic.Bool
}

// NewLeader creates a Leader. Both callbacks run on the Run goroutine.
func NewLeader(locks domain.LockManager, key string, ttl time.Duration, onElected, onDemoted func(), logger *slog.Logger) *Leader {
	return &Leader{
		locks:     locks,
		key:       key,
		ttl:       ttl,
		onElected: onElected,
		onDemoted: onDemoted,
		logger:    logger.With(slog.String("component", "leader")),
	}
}

// Leading reports whether this node currently holds the lock.
func (l *Leader) Leading() bool { return l.leading.Load() }

// Run competes for the lock until ctx is cancelled.
func (l *Leader) Run(ctx context.Context) error {
	retry := l.ttl / 3
	for {
		unlock, err := l.locks.Acquire(ctx, l.key, l.ttl)
		switch {
		case err == nil:
			l.lead(ctx, unlock, retry)
		case errors.Is(err, domain.ErrLockHeld):
		default:
			l.logger.WarnContext(ctx, "leader: acquire failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (l *Leader) lead(ctx context.Context, unlock func(), renew time.Duration) {
	l.leading.Store(true)
	l.logger.InfoContext(ctx, "leader: elected", slog.String("key", l.key))
	l.onElected()

	defer func() {
		l.leading.Store(false)
		l.onDemoted()
		unlock()
		l.logger.Info("leader: stepped down", slog.String("key", l.key))
	}()

	ticker := time.NewTicker(renew)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.locks.Extend(ctx, l.key, l.ttl); err != nil {
				l.logger.WarnContext(ctx, "leader: lost lock", slog.String("error", err.Error()))
				return
			}
		}
	}
}
