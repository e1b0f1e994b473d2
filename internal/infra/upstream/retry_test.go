package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayExponentialSchedule(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, Base: 100 * time.Millisecond, Max: time.Second}

	assert.Equal(t, 100*time.Millisecond, policy.Delay(1, 0))
	assert.Equal(t, 200*time.Millisecond, policy.Delay(2, 0))
	assert.Equal(t, 400*time.Millisecond, policy.Delay(3, 0))
	assert.Equal(t, 800*time.Millisecond, policy.Delay(4, 0))
	assert.Equal(t, time.Second, policy.Delay(5, 0))
	assert.Equal(t, time.Second, policy.Delay(10, 0))
}

func TestDelayPrefersRetryAfter(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Base: 100 * time.Millisecond, Max: 8 * time.Second}

	assert.Equal(t, 3*time.Second, policy.Delay(1, 3*time.Second))
	// Hints beyond the cap are clamped.
	assert.Equal(t, 8*time.Second, policy.Delay(1, time.Minute))
}

func TestDelayNormalizesZeroPolicy(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, time.Second, policy.Delay(1, 0))
}
