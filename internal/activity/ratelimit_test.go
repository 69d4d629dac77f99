package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSourceLimiterCeiling(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSourceLimiter(3, time.Minute)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"), "event %d", i)
	}
	assert.False(t, limiter.Allow("10.0.0.1"), "event over ceiling must be dropped")

	// Other sources are unaffected.
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestSourceLimiterWindowExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSourceLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	now = now.Add(61 * time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "new event accepted after the window elapses")
}

func TestSourceLimiterSweepDropsStaleSources(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSourceLimiter(2, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	limiter.sweepOnce()

	limiter.mu.Lock()
	_, present := limiter.events["10.0.0.1"]
	limiter.mu.Unlock()
	assert.False(t, present)
}
