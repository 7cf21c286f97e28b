package input

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how fast one source may issue commands.
type RateLimitConfig struct {
	PerSecond float64       // sustained commands per second
	Burst     int           // commands allowed at once
	IdleTTL   time.Duration // forget sources idle this long
}

// DefaultRateLimitConfig allows a held-down key but not a flood.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerSecond: 20,
		Burst:     10,
		IdleTTL:   5 * time.Minute,
	}
}

type sourceLimit struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements per-source token buckets.
type RateLimiter struct {
	mu      sync.Mutex
	sources map[string]*sourceLimit
	config  RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Zero config fields take defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = def.PerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = def.IdleTTL
	}
	return &RateLimiter{
		sources: make(map[string]*sourceLimit),
		config:  cfg,
		now:     time.Now,
	}
}

// Allow reports whether source may issue a command now.
func (rl *RateLimiter) Allow(source string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	s, ok := rl.sources[source]
	if !ok {
		s = &sourceLimit{limiter: rate.NewLimiter(rate.Limit(rl.config.PerSecond), rl.config.Burst)}
		rl.sources[source] = s
	}
	s.lastSeen = now
	return s.limiter.AllowN(now, 1)
}

// Cleanup forgets sources idle longer than IdleTTL and returns how many
// were removed.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.IdleTTL)
	removed := 0
	for key, s := range rl.sources {
		if s.lastSeen.Before(cutoff) {
			delete(rl.sources, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sources.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.sources)
}
