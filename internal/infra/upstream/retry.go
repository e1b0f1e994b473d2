package upstream

import (
	"context"
	"time"

	"github.com/voucherifyio/core-mcp/internal/domain"
)

// RetryPolicy is the explicit bounded-retry configuration for upstream
// calls. Only RATE_LIMITED and UNAVAILABLE failures are eligible; everything
// else propagates on the first attempt.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: domain.DefaultMaxAttempts,
		Base:        domain.DefaultRetryBase,
		Max:         domain.DefaultRetryMax,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Base <= 0 {
		p.Base = time.Second
	}
	if p.Max < p.Base {
		p.Max = p.Base
	}
	return p
}

// Delay returns the backoff before the given attempt (1-based), preferring
// an upstream retry-after hint over the exponential schedule.
func (p RetryPolicy) Delay(attempt int, retryAfter time.Duration) time.Duration {
	p = p.normalized()
	if retryAfter > 0 {
		if retryAfter > p.Max {
			return p.Max
		}
		return retryAfter
	}
	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
