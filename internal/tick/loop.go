package tick

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned for work offered after Run has returned.
var ErrStopped = errors.New("tick loop stopped")

// Work runs on the loop goroutine with the current tick.
type Work func(tick int64)

// #region loop
// Loop is the single serialized context that owns per-player state.
// Work runs one item at a time in submission order.
type Loop struct {
	interval time.Duration
	queue    chan Work
	stopped  chan struct{}
	now      atomic.Int64
	logger   *zap.Logger
}

// NewLoop creates a loop advancing one tick per interval with room for
// backlog queued items.
func NewLoop(interval time.Duration, backlog int, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		interval: interval,
		queue:    make(chan Work, backlog),
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

// Now returns the current tick. Safe from any goroutine.
func (l *Loop) Now() int64 {
	return l.now.Load()
}

// #endregion loop

// #region submit
// Submit queues fn without waiting for it to run. It blocks while the queue is full.
func (l *Loop) Submit(fn Work) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopped:
		return ErrStopped
	}
}

// Do queues fn and waits for it to finish. If ctx ends first, fn may still
// run later but Do returns ctx.Err().
func (l *Loop) Do(ctx context.Context, fn Work) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}
	done := make(chan struct{})
	wrapped := func(tick int64) {
		defer close(done)
		fn(tick)
	}
	select {
	case l.queue <- wrapped:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// #endregion submit

// #region run
// Run advances the tick and executes queued work until ctx is cancelled.
// Work still queued at shutdown is dropped. Run must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("tick loop started", zap.Duration("interval", l.interval))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("tick loop stopped", zap.Int64("tick", l.Now()), zap.Int("dropped", len(l.queue)))
			return nil
		case <-ticker.C:
			l.now.Add(1)
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn Work) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("tick work panicked", zap.Any("panic", r), zap.Int64("tick", l.Now()))
		}
	}()
	fn(l.Now())
}

// #endregion run
