package http

import (
	"context"
	"math"
	"time"

	"github.com/ivelum/cub-client/internal/constants"
)

// RetryPolicy controls how connection failures are retried. It is immutable
// once the client is built.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// Multiplier is the growth factor of consecutive waits.
	Multiplier float64
	// MaxDelay caps a single wait; zero means unbounded.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default policy: 3 retries after 200ms,
// 400ms and 800ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: constants.DefaultRetryMax,
		BaseDelay:  constants.DefaultRetryBaseDelay,
		Multiplier: constants.DefaultRetryMultiplier,
		MaxDelay:   constants.DefaultRetryWaitMax,
	}
}

// Backoff returns the wait before retry number retry, counting from zero:
// BaseDelay × Multiplier^retry, capped by MaxDelay.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(multiplier, float64(retry))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}

	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(delay)
}

// TotalBackoff is the sum of all waits of a call that exhausts its retries.
func (p RetryPolicy) TotalBackoff() time.Duration {
	var total time.Duration
	for retry := range max(p.MaxRetries, 0) {
		total += p.Backoff(retry)
	}

	return total
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
