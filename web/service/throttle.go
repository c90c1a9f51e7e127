package service

import (
	"sync"
	"time"

	"github.com/inkwell-blog/inkwell/config"
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// LoginLimiter locks a client key out after too many failed logins inside a
// window.
type LoginLimiter struct {
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

func NewLoginLimiter(cfg config.LoginThrottleConfig) *LoginLimiter {
	return &LoginLimiter{
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
		lockout:     cfg.Lockout,
		now:         time.Now,
		attempts:    make(map[string]*attemptState),
	}
}

// Check returns how long key is still locked out, zero if it may try.
func (l *LoginLimiter) Check(key string) time.Duration {
	if l.maxAttempts <= 0 {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// RecordFailure counts a failed attempt and returns the attempts left.
func (l *LoginLimiter) RecordFailure(key string) int {
	if l.maxAttempts <= 0 {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	state, ok := l.attempts[key]
	expiredLock := ok && !state.lockedUntil.IsZero() && !now.Before(state.lockedUntil)
	if !ok || expiredLock || now.Sub(state.firstAttempt) > l.window {
		state = &attemptState{firstAttempt: now}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.maxAttempts {
		state.lockedUntil = now.Add(l.lockout)
		state.count = l.maxAttempts
	}
	return l.maxAttempts - state.count
}

func (l *LoginLimiter) Reset(key string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, key)
}

// Sweep drops entries whose window and lockout have both passed.
func (l *LoginLimiter) Sweep() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	removed := 0
	for key, state := range l.attempts {
		if now.Sub(state.firstAttempt) > l.window && !now.Before(state.lockedUntil) {
			delete(l.attempts, key)
			removed++
		}
	}
	return removed
}

func (l *LoginLimiter) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.attempts)
}
