package input

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"arena/internal/game/spatial"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrQueueFull   = errors.New("command queue full")
)

// QueueConfig sizes the command queue.
type QueueConfig struct {
	BufferSize int
	RateLimit  RateLimitConfig
}

// DefaultQueueConfig returns production defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BufferSize: 256,
		RateLimit:  DefaultRateLimitConfig(),
	}
}

// Queue hands commands from network goroutines to the tick loop. Submit
// never blocks: over-limit and overflow commands are refused.
type Queue struct {
	queue   *spatial.LockFreeQueue[Command]
	limiter *RateLimiter
	log     *slog.Logger

	enqueued    atomic.Uint64
	drained     atomic.Uint64
	limited     atomic.Uint64
	avgWaitTime atomic.Int64 // nanoseconds, moving average
}

// NewQueue creates a queue.
func NewQueue(cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultQueueConfig().BufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		queue:   spatial.NewLockFreeQueue[Command](cfg.BufferSize),
		limiter: NewRateLimiter(cfg.RateLimit),
		log:     logger,
	}
}

// Submit validates, rate limits and enqueues cmd.
func (q *Queue) Submit(cmd Command) error {
	if err := Validate(cmd); err != nil {
		return err
	}
	if !q.limiter.Allow(cmd.Source) {
		q.limited.Add(1)
		return ErrRateLimited
	}
	if cmd.ReceivedAt.IsZero() {
		cmd.ReceivedAt = time.Now()
	}
	if !q.queue.TryPush(cmd) {
		if d := q.queue.Dropped(); d%100 == 1 {
			q.log.Warn("command queue full", "source", cmd.Source, "dropped", d)
		}
		return ErrQueueFull
	}
	q.enqueued.Add(1)
	return nil
}

// Drain removes up to max commands in arrival order. Called by the tick
// loop only.
func (q *Queue) Drain(max int) []Command {
	cmds := q.queue.Drain(max)
	if len(cmds) == 0 {
		return nil
	}
	q.drained.Add(uint64(len(cmds)))
	now := time.Now()
	for _, c := range cmds {
		q.updateAvgWaitTime(now.Sub(c.ReceivedAt))
	}
	return cmds
}

func (q *Queue) updateAvgWaitTime(wait time.Duration) {
	cur := q.avgWaitTime.Load()
	q.avgWaitTime.Store((cur*9 + wait.Nanoseconds()) / 10)
}

// RunJanitor prunes idle rate limit entries until ctx is done.
func (q *Queue) RunJanitor(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := q.limiter.Cleanup(); n > 0 {
				q.log.Debug("pruned idle command sources", "count", n)
			}
		}
	}
}

// QueueStats holds queue counters.
type QueueStats struct {
	Enqueued      uint64  `json:"enqueued"`
	Drained       uint64  `json:"drained"`
	Dropped       uint64  `json:"dropped"`
	RateLimited   uint64  `json:"rate_limited"`
	Pending       int     `json:"pending"`
	BufferSize    int     `json:"buffer_size"`
	AvgWaitTimeMs float64 `json:"avg_wait_time_ms"`
}

// Stats returns current counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued:      q.enqueued.Load(),
		Drained:       q.drained.Load(),
		Dropped:       q.queue.Dropped(),
		RateLimited:   q.limited.Load(),
		Pending:       q.queue.Len(),
		BufferSize:    q.queue.Cap(),
		AvgWaitTimeMs: float64(q.avgWaitTime.Load()) / 1e6,
	}
}
