package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckStuck(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	timeout := 60 * time.Minute

	fresh := &Item{State: Matching, RetryCount: 0, MaxRetries: 3}
	assert.Equal(t, NotStuck, CheckStuck(fresh, now.Add(-10*time.Minute), now, timeout))

	retryable := &Item{State: Matching, RetryCount: 1, MaxRetries: 3}
	assert.Equal(t, Reschedule, CheckStuck(retryable, now.Add(-90*time.Minute), now, timeout))

	exhausted := &Item{State: Matching, RetryCount: 3, MaxRetries: 3}
	assert.Equal(t, ForcePendingReview, CheckStuck(exhausted, now.Add(-90*time.Minute), now, timeout))

	terminal := &Item{State: AutoLinked, RetryCount: 3, MaxRetries: 3}
	assert.Equal(t, NotStuck, CheckStuck(terminal, now.Add(-90*time.Minute), now, timeout))
}
