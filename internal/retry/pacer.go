// Package retry implements the exponential-backoff retry policy used by
// the DirMan client's RPCs (§4.4), modeled on rclone's lib/pacer: callers
// wrap a unit of work in a closure that reports whether the failure was
// retryable. The ops package does not use it; each Op makes its pool call
// once.
package retry

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer retries a closure with capped exponential backoff, optionally
// throttling steady-state attempts through a token-bucket rate.Limiter
// (modeled on backend/xpan's API rate limiter: one call admitted per
// token, no burst beyond what the limiter was built with).
type Pacer struct {
	minSleep   time.Duration
	maxSleep   time.Duration
	factor     float64
	maxRetries int
	limiter    *rate.Limiter
}

// Option configures a Pacer.
type Option func(*Pacer)

// MinSleep sets the initial backoff delay.
func MinSleep(d time.Duration) Option { return func(p *Pacer) { p.minSleep = d } }

// MaxSleep caps the backoff delay.
func MaxSleep(d time.Duration) Option { return func(p *Pacer) { p.maxSleep = d } }

// Factor sets the exponential growth factor applied after each retry.
func Factor(f float64) Option { return func(p *Pacer) { p.factor = f } }

// MaxRetries caps the number of attempts (including the first).
func MaxRetries(n int) Option { return func(p *Pacer) { p.maxRetries = n } }

// RateLimit caps the steady-state call rate to callsPerSecond, with bursts
// up to burst, using a golang.org/x/time/rate.Limiter. Useful for pacing
// RPCs against a node that would otherwise be hammered by retries across
// many concurrent callers.
func RateLimit(callsPerSecond float64, burst int) Option {
	return func(p *Pacer) { p.limiter = rate.NewLimiter(rate.Limit(callsPerSecond), burst) }
}

// New builds a Pacer. Defaults match §4.4's baseline: base 50ms, factor 2,
// cap 1s, ≤5 tries.
func New(opts ...Option) *Pacer {
	p := &Pacer{
		minSleep:   50 * time.Millisecond,
		maxSleep:   1 * time.Second,
		factor:     2,
		maxRetries: 5,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Work is a unit of work: it returns (retry, err). retry is only consulted
// when err != nil.
type Work func() (retry bool, err error)

// Call runs fn, retrying with backoff while fn reports retry==true, up to
// maxRetries attempts total.
func (p *Pacer) Call(ctx context.Context, fn Work) error {
	sleep := p.minSleep
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		retry, err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		if attempt == p.maxRetries-1 {
			break
		}
		jittered := sleep/2 + time.Duration(rand.Int63n(int64(sleep)+1))/2
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}
		sleep = time.Duration(float64(sleep) * p.factor)
		if sleep > p.maxSleep {
			sleep = p.maxSleep
		}
	}
	return lastErr
}
