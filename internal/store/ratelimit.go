package store

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

// CreationLimiter allows one room creation per network identity per cooldown
type CreationLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	entries  map[string]*limiterEntry
}

// NewCreationLimiter creates a limiter with the given cooldown
func NewCreationLimiter(cooldown time.Duration) *CreationLimiter {
	return &CreationLimiter{
		cooldown: cooldown,
		entries:  make(map[string]*limiterEntry),
	}
}

// Allow consumes the identity's token at now. When the token is not back yet
// it returns the remaining wait and false.
func (l *CreationLimiter) Allow(identity string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.cooldown), 1)}
		l.entries[identity] = e
	}
	if !e.limiter.AllowN(now, 1) {
		wait := l.cooldown - now.Sub(e.last)
		if wait <= 0 {
			wait = time.Second
		}
		return wait, false
	}
	e.last = now
	return 0, true
}

// Prune drops identities whose cooldown has fully elapsed
func (l *CreationLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	pruned := 0
	for id, e := range l.entries {
		if now.Sub(e.last) >= l.cooldown {
			delete(l.entries, id)
			pruned++
		}
	}
	return pruned
}

// Len reports the number of tracked identities
func (l *CreationLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
