package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyWaits(t *testing.T) {
	policy := NewRetryPolicy([]time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second})

	assert.Equal(t, 4, policy.MaxAttempts())

	wait, ok := policy.WaitBeforeRetry(1)
	assert.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait)

	wait, ok = policy.WaitBeforeRetry(3)
	assert.True(t, ok)
	assert.Equal(t, 8*time.Second, wait)

	_, ok = policy.WaitBeforeRetry(4)
	assert.False(t, ok)

	_, ok = policy.WaitBeforeRetry(0)
	assert.False(t, ok)
}

func TestRetryPolicyEmptyScheduleAllowsSingleAttempt(t *testing.T) {
	policy := NewRetryPolicy(nil)

	assert.Equal(t, 1, policy.MaxAttempts())

	_, ok := policy.WaitBeforeRetry(1)
	assert.False(t, ok)
}

func TestNewRetryPolicyCopiesSchedule(t *testing.T) {
	waits := []time.Duration{time.Second}
	policy := NewRetryPolicy(waits)
	waits[0] = time.Hour

	wait, ok := policy.WaitBeforeRetry(1)
	assert.True(t, ok)
	assert.Equal(t, time.Second, wait)
}
