package resilience

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

func mustRateLimiter(t *testing.T, limit int, window time.Duration) *RateLimiter {
	t.Helper()
	rl, err := NewRateLimiter(RateLimiterConfig{Limit: limit, Window: window})
	if err != nil {
		t.Fatalf("NewRateLimiter() error = %v", err)
	}
	return rl
}

// waitForQueue polls until n callers are blocked.
func waitForQueue(t *testing.T, rl *RateLimiter, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for rl.Waiting() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Waiting() = %d, want %d", rl.Waiting(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRateLimiter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config RateLimiterConfig
	}{
		{"zero limit", RateLimiterConfig{Limit: 0, Window: time.Second}},
		{"negative limit", RateLimiterConfig{Limit: -1, Window: time.Second}},
		{"zero window", RateLimiterConfig{Limit: 1}},
		{"negative window", RateLimiterConfig{Limit: 1, Window: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, err := NewRateLimiter(tt.config)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewRateLimiter() error = %v, want ErrInvalidConfig", err)
			}
			if rl != nil {
				t.Error("NewRateLimiter() should return nil on error")
			}
		})
	}
}

func TestRateLimiter_TryAdmit(t *testing.T) {
	rl := mustRateLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.TryAdmit() {
			t.Errorf("TryAdmit() = false on attempt %d, want true", i)
		}
	}
	if rl.TryAdmit() {
		t.Error("TryAdmit() = true with a full window, want false")
	}
	if rl.Occupancy() != 3 {
		t.Errorf("Occupancy() = %d, want 3", rl.Occupancy())
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	const window = 100 * time.Millisecond
	rl := mustRateLimiter(t, 2, window)
	ctx := context.Background()

	start := time.Now()
	var admitted []time.Time
	for i := 0; i < 5; i++ {
		if err := rl.Admit(ctx); err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
		admitted = append(admitted, time.Now())
	}

	for i := 0; i < 2; i++ {
		if d := admitted[i].Sub(start); d > 20*time.Millisecond {
			t.Errorf("call %d admitted after %v, want immediately", i, d)
		}
	}
	for i := 2; i < 5; i++ {
		if d := admitted[i].Sub(admitted[i-2]); d < window {
			t.Errorf("calls %d and %d admitted %v apart, want at least %v", i-2, i, d, window)
		}
	}
	if total := admitted[4].Sub(start); total > 2*window+50*time.Millisecond {
		t.Errorf("5 calls took %v, want about %v", total, 2*window)
	}
}

func TestRateLimiter_NeverExceedsLimit(t *testing.T) {
	const (
		limit   = 5
		window  = 50 * time.Millisecond
		callers = 20
	)
	rl := mustRateLimiter(t, limit, window)

	var mu sync.Mutex
	var admitted []time.Time
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = rl.Execute(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				admitted = append(admitted, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(admitted) != callers {
		t.Fatalf("admitted = %d, want %d", len(admitted), callers)
	}
	sort.Slice(admitted, func(i, j int) bool { return admitted[i].Before(admitted[j]) })

	// Timestamps are taken after admission, so allow a little scheduling slack.
	const slack = 10 * time.Millisecond
	for i := limit; i < len(admitted); i++ {
		if d := admitted[i].Sub(admitted[i-limit]); d < window-slack {
			t.Errorf("admissions %d and %d are %v apart, want at least %v", i-limit, i, d, window)
		}
	}
}

func TestRateLimiter_FIFO(t *testing.T) {
	rl := mustRateLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := rl.Admit(ctx); err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	const waiters = 5
	admitted := make(chan int, waiters)
	for i := 0; i < waiters; i++ {
		go func(id int) {
			if err := rl.Admit(ctx); err != nil {
				t.Errorf("Admit() error = %v", err)
				return
			}
			admitted <- id
		}(i)
		waitForQueue(t, rl, i+1)
	}

	// Each Reset frees exactly one slot for the head of the queue.
	for want := 0; want < waiters; want++ {
		rl.Reset()
		select {
		case id := <-admitted:
			if id != want {
				t.Fatalf("admitted caller %d, want %d", id, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("caller %d was not admitted", want)
		}
	}
}

func TestRateLimiter_TryAdmitDoesNotJumpQueue(t *testing.T) {
	rl := mustRateLimiter(t, 1, time.Minute)
	_ = rl.Admit(context.Background())

	done := make(chan error, 1)
	go func() { done <- rl.Admit(context.Background()) }()
	waitForQueue(t, rl, 1)

	// Free the window without waking the queued caller.
	rl.mu.Lock()
	rl.count = 0
	rl.mu.Unlock()

	if rl.TryAdmit() {
		t.Error("TryAdmit() = true while a caller is queued")
	}

	rl.Reset()
	if err := <-done; err != nil {
		t.Errorf("queued Admit() error = %v", err)
	}
}

func TestRateLimiter_Cancellation(t *testing.T) {
	rl := mustRateLimiter(t, 1, 10*time.Second)
	_ = rl.Admit(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Admit(ctx)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Admit() error = %v, want ErrCancelled wrapping context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancelled Admit() returned after %v", elapsed)
	}
	if rl.Waiting() != 0 {
		t.Errorf("Waiting() = %d after cancellation, want 0", rl.Waiting())
	}
	if rl.Occupancy() != 1 {
		t.Errorf("Occupancy() = %d, cancelled caller must not be recorded", rl.Occupancy())
	}
}

func TestRateLimiter_CancelledHeadHandsOff(t *testing.T) {
	const window = 80 * time.Millisecond
	rl := mustRateLimiter(t, 1, window)
	_ = rl.Admit(context.Background())

	headCtx, cancelHead := context.WithCancel(context.Background())
	headErr := make(chan error, 1)
	go func() { headErr <- rl.Admit(headCtx) }()
	waitForQueue(t, rl, 1)

	nextErr := make(chan error, 1)
	go func() { nextErr <- rl.Admit(context.Background()) }()
	waitForQueue(t, rl, 2)

	cancelHead()
	if err := <-headErr; !errors.Is(err, ErrCancelled) {
		t.Errorf("head Admit() error = %v, want ErrCancelled", err)
	}

	select {
	case err := <-nextErr:
		if err != nil {
			t.Errorf("next Admit() error = %v", err)
		}
	case <-time.After(window + 500*time.Millisecond):
		t.Fatal("next caller was not admitted after the head cancelled")
	}
}

func TestRateLimiter_AlreadyCancelled(t *testing.T) {
	rl := mustRateLimiter(t, 1, time.Minute)
	_ = rl.Admit(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Admit(ctx); !errors.Is(err, ErrCancelled) {
		t.Errorf("Admit() error = %v, want ErrCancelled", err)
	}
}

func TestRateLimiter_HalfOpenWindow(t *testing.T) {
	const window = time.Second
	rl := mustRateLimiter(t, 2, window)
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.records[0] = now.Add(-window)
	rl.records[1] = now.Add(-window + time.Nanosecond)
	rl.count = 2

	rl.expireLocked(now)
	if rl.count != 1 {
		t.Fatalf("count = %d, want 1: a record exactly one window old is expired", rl.count)
	}
	if !rl.records[rl.head].Equal(now.Add(-window + time.Nanosecond)) {
		t.Error("the younger record should remain")
	}
}

func TestRateLimiter_RingWraps(t *testing.T) {
	rl := mustRateLimiter(t, 2, 30*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if err := rl.Admit(ctx); err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
		if occ := rl.Occupancy(); occ < 1 || occ > 2 {
			t.Fatalf("Occupancy() = %d, want 1 or 2", occ)
		}
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := mustRateLimiter(t, 1, time.Minute)
	_ = rl.Admit(context.Background())

	done := make(chan error, 1)
	go func() { done <- rl.Admit(context.Background()) }()
	waitForQueue(t, rl, 1)

	rl.Reset()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Admit() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Reset did not release the queued caller")
	}
	if rl.Occupancy() != 1 {
		t.Errorf("Occupancy() = %d, want 1", rl.Occupancy())
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := mustRateLimiter(t, 1, time.Minute)

	executed := false
	err := rl.Execute(context.Background(), func(ctx context.Context) error {
		executed = true
		return nil
	})
	if err != nil || !executed {
		t.Errorf("Execute() error = %v, executed = %v", err, executed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	executed = false
	err = rl.Execute(ctx, func(ctx context.Context) error {
		executed = true
		return nil
	})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Execute() error = %v, want ErrCancelled", err)
	}
	if executed {
		t.Error("operation should not run without admission")
	}
}

func TestRateLimiter_Accessors(t *testing.T) {
	rl := mustRateLimiter(t, 4, time.Second)
	if rl.Limit() != 4 {
		t.Errorf("Limit() = %d, want 4", rl.Limit())
	}
	if rl.Config().Window != time.Second {
		t.Errorf("Config().Window = %v, want 1s", rl.Config().Window)
	}
	if rl.Occupancy() != 0 || rl.Waiting() != 0 {
		t.Error("new limiter should be empty")
	}
}
