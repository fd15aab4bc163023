package quota

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Default bucket parameters. The upstream allows roughly 1500 calls per
// 15-minute window in user context; we target 1400 to keep a safety margin.
const (
	// DefaultCapacity is the maximum burst the bucket allows.
	DefaultCapacity = 1400

	// DefaultWindow is the upstream quota window the refill rate is derived
	// from: DefaultCapacity tokens per DefaultWindow.
	DefaultWindow = 15 * time.Minute
)

// Jitter bounds added to every nonzero wait. The spread prevents waiters that
// computed identical deficits from waking simultaneously.
const (
	minJitter = 100 * time.Millisecond
	maxJitter = 500 * time.Millisecond
)

// Governor is a token bucket shared by all crawl jobs. One token is one
// directory API call. Tokens refill continuously at the configured rate,
// capped at the bucket capacity; Acquire deducts tokens and suspends the
// caller until its deficit has refilled.
//
// Callers queue in arrival order because each Acquire deducts before
// waiting, so later arrivals observe a deeper deficit and compute a longer
// wait. Ties in computed wait are broken by jitter; exact FIFO wake-up order
// is neither guaranteed nor required.
type Governor struct {
	// mu serializes every refill-and-deduct of the token count.
	mu sync.Mutex

	// rate is the refill rate in tokens per second.
	rate float64

	// capacity is the maximum token balance.
	capacity float64

	// tokens is the current balance. Negative values represent debt already
	// claimed by suspended callers.
	tokens float64

	// lastRefill is the wall-clock time of the last balance update.
	lastRefill time.Time

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// jitter returns the random wait padding. Injectable for tests.
	jitter func() time.Duration

	logger *slog.Logger
}

// Option configures a Governor.
type Option func(*Governor)

// WithLogger sets the logger used for wait and low-balance reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Governor) {
		g.logger = logger
	}
}

// WithClock replaces the wall clock. Tests use this to observe refill
// behavior without real waiting.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		g.now = now
	}
}

// WithSleeper replaces the suspend function. Tests use this to capture
// computed waits instead of sleeping.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Governor) {
		g.sleep = sleep
	}
}

// WithJitter replaces the jitter source. Tests pass a zero jitter to make
// waits deterministic.
func WithJitter(jitter func() time.Duration) Option {
	return func(g *Governor) {
		g.jitter = jitter
	}
}

// NewGovernor creates a Governor that refills capacity tokens per window.
// The bucket starts full, so an idle pipeline can burst up to capacity calls
// before the rate limit bites.
func NewGovernor(capacity int, window time.Duration, opts ...Option) (*Governor, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("quota: capacity must be positive, got %d", capacity)
	}
	if window <= 0 {
		return nil, fmt.Errorf("quota: window must be positive, got %v", window)
	}

	g := &Governor{
		rate:     float64(capacity) / window.Seconds(),
		capacity: float64(capacity),
		tokens:   float64(capacity),
		now:      time.Now,
		sleep:    sleepContext,
		jitter: func() time.Duration {
			return minJitter + time.Duration(rand.Int63n(int64(maxJitter-minJitter)))
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.lastRefill = g.now()

	return g, nil
}

// Acquire consumes n tokens, suspending the caller until the bucket has
// refilled enough to cover them. It returns early with the context error if
// ctx is cancelled while waiting; in that case the claimed tokens are
// returned to the bucket.
func (g *Governor) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		return fmt.Errorf("quota: acquire count must be positive, got %d", n)
	}

	g.mu.Lock()
	g.refillLocked()
	g.tokens -= float64(n)

	var wait time.Duration
	if g.tokens < 0 {
		wait = time.Duration(-g.tokens / g.rate * float64(time.Second))
		wait += g.jitter()
	}
	remaining := g.tokens
	g.mu.Unlock()

	if wait == 0 {
		if remaining < g.capacity*0.1 {
			g.logger.Info("quota running low",
				"remaining", int(remaining),
				"capacity", int(g.capacity),
			)
		}
		return nil
	}

	g.logger.Warn("quota exhausted, suspending caller",
		"need", n,
		"wait", wait.Round(time.Millisecond),
	)

	if err := g.sleep(ctx, wait); err != nil {
		// Return the claimed tokens so cancelled callers don't starve
		// the waiters behind them.
		g.mu.Lock()
		g.tokens += float64(n)
		g.mu.Unlock()
		return err
	}
	return nil
}

// Penalize drains the bucket and records debt worth d, so the next Acquire
// waits at least d. The directory client calls this when the upstream
// returns an explicit quota-exceeded response with a reset window: whatever
// our local accounting says, the upstream has declared the quota spent.
func (g *Governor) Penalize(d time.Duration) {
	if d <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.refillLocked()
	debt := g.rate * d.Seconds()
	if g.tokens > 0 {
		g.tokens = 0
	}
	g.tokens -= debt

	g.logger.Warn("upstream quota exceeded, draining bucket",
		"reset_in", d,
	)
}

// Remaining returns the token balance after an up-to-date refill. It exists
// for monitoring and logging only; callers must never use it to bypass
// Acquire, since the balance can change the moment the lock is released.
func (g *Governor) Remaining() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.refillLocked()
	return g.tokens
}

// refillLocked credits tokens for the wall-clock time elapsed since the last
// update, capped at capacity. Callers must hold mu.
func (g *Governor) refillLocked() {
	now := g.now()
	elapsed := now.Sub(g.lastRefill).Seconds()
	if elapsed > 0 {
		g.tokens += elapsed * g.rate
		if g.tokens > g.capacity {
			g.tokens = g.capacity
		}
	}
	g.lastRefill = now
}

// sleepContext suspends for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
