package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewAuthRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client-a"), "attempt %d should pass", i)
	}
	assert.False(t, rl.Allow("client-a"))

	// Other clients are unaffected.
	assert.True(t, rl.Allow("client-b"))
}

func TestAuthRateLimiterWindowSlides(t *testing.T) {
	rl := NewAuthRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("client-a"))
}
