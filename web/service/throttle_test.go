package service

import (
	"testing"
	"time"

	"github.com/inkwell-blog/inkwell/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(now *time.Time) *LoginLimiter {
	l := NewLoginLimiter(config.LoginThrottleConfig{
		MaxAttempts: 3,
		Window:      15 * time.Minute,
		Lockout:     10 * time.Minute,
	})
	l.now = func() time.Time { return *now }
	return l
}

func TestLoginLimiterLocksAfterMaxAttempts(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	assert.Equal(t, 2, l.RecordFailure("1.2.3.4"))
	assert.Equal(t, 1, l.RecordFailure("1.2.3.4"))
	assert.Zero(t, l.Check("1.2.3.4"))
	assert.Equal(t, 0, l.RecordFailure("1.2.3.4"))

	assert.Equal(t, 10*time.Minute, l.Check("1.2.3.4"))
	assert.Zero(t, l.Check("5.6.7.8"))

	now = now.Add(4 * time.Minute)
	assert.Equal(t, 6*time.Minute, l.Check("1.2.3.4"))

	now = now.Add(6 * time.Minute)
	assert.Zero(t, l.Check("1.2.3.4"))
}

func TestLoginLimiterFreshBudgetAfterLockout(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 3; i++ {
		l.RecordFailure("ip")
	}
	require.Equal(t, 10*time.Minute, l.Check("ip"))

	// lockout over, still inside the 15 minute window
	now = now.Add(11 * time.Minute)
	assert.Zero(t, l.Check("ip"))
	assert.Equal(t, 2, l.RecordFailure("ip"))
	assert.Zero(t, l.Check("ip"))
	assert.Equal(t, 1, l.RecordFailure("ip"))
	assert.Equal(t, 0, l.RecordFailure("ip"))
	assert.Equal(t, 10*time.Minute, l.Check("ip"))
}

func TestLoginLimiterWindowResets(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.RecordFailure("ip")
	l.RecordFailure("ip")
	now = now.Add(16 * time.Minute)
	assert.Equal(t, 2, l.RecordFailure("ip"))
}

func TestLoginLimiterResetAndSweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.RecordFailure("a")
	l.RecordFailure("b")
	l.Reset("a")
	assert.Equal(t, 1, l.Len())

	for i := 0; i < 3; i++ {
		l.RecordFailure("c")
	}
	now = now.Add(16 * time.Minute)
	// both windows and the 10:10 lockout of c have passed
	assert.Equal(t, 2, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestLoginLimiterDisabled(t *testing.T) {
	l := NewLoginLimiter(config.LoginThrottleConfig{})
	for i := 0; i < 10; i++ {
		l.RecordFailure("ip")
	}
	assert.Zero(t, l.Check("ip"))
	assert.Zero(t, l.Len())
}
