package resilience

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Limit is the number of admissions allowed in any Window-long interval.
	// Required.
	Limit int

	// Window is the length of the sliding window.
	// Required.
	Window time.Duration
}

// RateLimiter admits at most Limit operations in any sliding Window.
//
// Admission records are kept in a ring buffer sized to Limit, so the oldest
// record is always at the head. Blocked callers queue in arrival order and
// only the head of the queue waits on the window; the rest wait to be handed
// the head position.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: blocked callers are admitted first come, first served.
// - Context: Admit returns ErrCancelled as soon as ctx is done.
type RateLimiter struct {
	config RateLimiterConfig

	mu      sync.Mutex
	records []time.Time
	head    int
	count   int
	queue   list.List
}

type ticket struct {
	wake chan struct{}
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) (*RateLimiter, error) {
	if config.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d must be positive", ErrInvalidConfig, config.Limit)
	}
	if config.Window <= 0 {
		return nil, fmt.Errorf("%w: window %v must be positive", ErrInvalidConfig, config.Window)
	}

	return &RateLimiter{
		config:  config,
		records: make([]time.Time, config.Limit),
	}, nil
}

// Admit blocks until the caller may proceed and records the admission.
func (rl *RateLimiter) Admit(ctx context.Context) error {
	rl.mu.Lock()

	if rl.queue.Len() == 0 && rl.tryRecordLocked(time.Now()) {
		rl.mu.Unlock()
		return nil
	}
	if ctx.Err() != nil {
		rl.mu.Unlock()
		return cancelled(ctx)
	}

	t := &ticket{wake: make(chan struct{}, 1)}
	elem := rl.queue.PushBack(t)

	for {
		if rl.queue.Front() != elem {
			rl.mu.Unlock()
			select {
			case <-t.wake:
			case <-ctx.Done():
				return rl.abandon(ctx, elem)
			}
			rl.mu.Lock()
			continue
		}

		now := time.Now()
		if rl.tryRecordLocked(now) {
			rl.queue.Remove(elem)
			rl.wakeHeadLocked()
			rl.mu.Unlock()
			return nil
		}

		wait := rl.config.Window - now.Sub(rl.records[rl.head])
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-t.wake:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return rl.abandon(ctx, elem)
		}
		rl.mu.Lock()
	}
}

// abandon removes a cancelled caller from the queue and passes the head
// position on.
func (rl *RateLimiter) abandon(ctx context.Context, elem *list.Element) error {
	rl.mu.Lock()
	rl.queue.Remove(elem)
	rl.wakeHeadLocked()
	rl.mu.Unlock()
	return cancelled(ctx)
}

// TryAdmit records an admission if one is available right now. It fails
// while other callers are queued.
func (rl *RateLimiter) TryAdmit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.queue.Len() > 0 {
		return false
	}
	return rl.tryRecordLocked(time.Now())
}

// Execute runs the operation once it is admitted.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Admit(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Occupancy returns the number of admissions in the current window.
func (rl *RateLimiter) Occupancy() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.expireLocked(time.Now())
	return rl.count
}

// Waiting returns the number of blocked callers.
func (rl *RateLimiter) Waiting() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.queue.Len()
}

// Limit returns the configured number of admissions per window.
func (rl *RateLimiter) Limit() int {
	return rl.config.Limit
}

// Config returns the rate limiter configuration.
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Reset forgets every admission. Queued callers are re-evaluated.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.head = 0
	rl.count = 0
	rl.wakeHeadLocked()
}

// expireLocked drops records that have left the window. A record exactly
// Window old is expired.
func (rl *RateLimiter) expireLocked(now time.Time) {
	for rl.count > 0 && now.Sub(rl.records[rl.head]) >= rl.config.Window {
		rl.head = (rl.head + 1) % len(rl.records)
		rl.count--
	}
}

func (rl *RateLimiter) tryRecordLocked(now time.Time) bool {
	rl.expireLocked(now)
	if rl.count >= rl.config.Limit {
		return false
	}
	rl.records[(rl.head+rl.count)%len(rl.records)] = now
	rl.count++
	return true
}

func (rl *RateLimiter) wakeHeadLocked() {
	front := rl.queue.Front()
	if front == nil {
		return
	}
	select {
	case front.Value.(*ticket).wake <- struct{}{}:
	default:
	}
}
