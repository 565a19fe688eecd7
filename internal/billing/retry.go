package billing

import "time"

// RetryPolicy maps a retry attempt index to the wait before that attempt.
// It is pure: it holds the wait schedule and nothing else. A charge may make
// at most MaxAttempts calls to the payment capability within one cycle run.
type RetryPolicy struct {
	waits []time.Duration
}

func NewRetryPolicy(waits []time.Duration) RetryPolicy {
	copied := make([]time.Duration, len(waits))
	copy(copied, waits)
	return RetryPolicy{waits: copied}
}

func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy([]time.Duration{500 * time.Millisecond, 2 * time.Second, 8 * time.Second})
}

// MaxAttempts is the initial attempt plus one per scheduled wait.
func (p RetryPolicy) MaxAttempts() int {
	return len(p.waits) + 1
}

// WaitBeforeRetry returns the wait before retry number retry (1-indexed).
// It reports false once the schedule is exhausted.
func (p RetryPolicy) WaitBeforeRetry(retry int) (time.Duration, bool) {
	if retry < 1 || retry > len(p.waits) {
		return 0, false
	}
	return p.waits[retry-1], true
}
