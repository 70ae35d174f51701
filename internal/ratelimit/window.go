// Package ratelimit gates edit submissions with a sliding time window.
// This is the only mutable shared state in the engine; every check is a
// single prune-compare-record unit under one mutex, so concurrent
// callers can never both take the last remaining slot.
package ratelimit

import (
	"sync"
	"time"
)

// SubmissionLimiter tracks submission timestamps within a trailing
// window and admits new submissions while the count stays under the
// limit. Instances are independent; inject one per live endpoint rather
// than sharing ambient state.
type SubmissionLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	times  []time.Time
}

// NewSubmissionLimiter creates a limiter admitting at most perHour
// submissions in any trailing 60-minute window.
func NewSubmissionLimiter(perHour int) *SubmissionLimiter {
	if perHour < 1 {
		perHour = 1
	}
	return &SubmissionLimiter{
		limit:  perHour,
		window: time.Hour,
	}
}

// TryAcquire prunes entries older than the window, then records now and
// returns true iff a slot remains. On false nothing is recorded.
func (l *SubmissionLimiter) TryAcquire(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	if len(l.times) >= l.limit {
		return false
	}
	l.times = append(l.times, now)
	return true
}

// Release removes one recorded submission at exactly t, returning its
// slot. Callers use it when a submission fails after admission; a t
// that was never recorded is a no-op.
func (l *SubmissionLimiter) Release(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.times) - 1; i >= 0; i-- {
		if l.times[i].Equal(t) {
			l.times = append(l.times[:i], l.times[i+1:]...)
			return
		}
	}
}

// Remaining reports how many slots are open at the given instant
func (l *SubmissionLimiter) Remaining(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	return l.limit - len(l.times)
}

// NextSlot returns when the oldest recorded submission rotates out of
// the window, or zero time when a slot is already open.
func (l *SubmissionLimiter) NextSlot(now time.Time) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)
	if len(l.times) < l.limit {
		return time.Time{}
	}
	return l.times[0].Add(l.window)
}

// Reset clears all recorded submissions
func (l *SubmissionLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.times = nil
}

// prune drops entries older than the window. Caller holds the lock.
func (l *SubmissionLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	keep := l.times[:0]
	for _, t := range l.times {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.times = keep
}
