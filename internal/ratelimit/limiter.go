// Package ratelimit throttles MCP tool calls with per-key token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned by CheckLimit when a tool has no tokens left.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter is a per-key token bucket. Every key starts with a full burst and
// refills at rate tokens per second. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Tokens reports the tokens currently available for key without consuming any.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refill(key).tokens
}

// refill tops up key's bucket for the time elapsed since it was last seen.
// Callers hold l.mu.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// ToolLimiters maps MCP tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default limits for the tipgen tools.
// Generation writes to disk and the catalog, so it gets the tightest budget.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"tipgen_generate": NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"tipgen_describe": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"tipgen_list":     NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit consumes a token for toolName. Tools without a limiter are
// never limited.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}
	return nil
}
