package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestSubmissionLimiter_AdmitsUpToLimit(t *testing.T) {
	l := NewSubmissionLimiter(3)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !l.TryAcquire(now) {
			t.Fatalf("Expected acquisition %d to succeed", i+1)
		}
	}
	if l.TryAcquire(now) {
		t.Error("Expected the 4th acquisition to fail")
	}
}

func TestSubmissionLimiter_WindowRotation(t *testing.T) {
	l := NewSubmissionLimiter(1)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !l.TryAcquire(start) {
		t.Fatal("Expected first acquisition to succeed")
	}
	if l.TryAcquire(start.Add(59 * time.Minute)) {
		t.Error("Expected acquisition inside the window to fail")
	}
	if !l.TryAcquire(start.Add(61 * time.Minute)) {
		t.Error("Expected acquisition after the window rotates to succeed")
	}
}

func TestSubmissionLimiter_ReleaseReturnsSlot(t *testing.T) {
	l := NewSubmissionLimiter(1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !l.TryAcquire(now) {
		t.Fatal("Expected first acquisition to succeed")
	}
	if l.TryAcquire(now) {
		t.Fatal("Expected the limiter full")
	}

	l.Release(now)
	if !l.TryAcquire(now) {
		t.Error("Expected acquisition to succeed after release")
	}
}

func TestSubmissionLimiter_ReleaseUnrecordedIsNoop(t *testing.T) {
	l := NewSubmissionLimiter(1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.Release(now.Add(-time.Minute))
	if got := l.Remaining(now); got != 1 {
		t.Errorf("Expected 1 slot remaining after a spurious release, got %d", got)
	}

	if !l.TryAcquire(now) {
		t.Fatal("Expected acquisition to succeed")
	}
	l.Release(now.Add(time.Second))
	if got := l.Remaining(now); got != 0 {
		t.Errorf("Expected a non-matching release to leave the slot taken, got %d remaining", got)
	}
}

func TestSubmissionLimiter_FailedAcquireRecordsNothing(t *testing.T) {
	l := NewSubmissionLimiter(1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.TryAcquire(now)
	l.TryAcquire(now.Add(time.Minute))

	// The denied attempt must not extend the window.
	if !l.TryAcquire(now.Add(61 * time.Minute)) {
		t.Error("Expected a slot once the only recorded submission aged out")
	}
}

func TestSubmissionLimiter_Remaining(t *testing.T) {
	l := NewSubmissionLimiter(5)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := l.Remaining(now); got != 5 {
		t.Errorf("Expected 5 remaining, got %d", got)
	}
	l.TryAcquire(now)
	l.TryAcquire(now)
	if got := l.Remaining(now); got != 3 {
		t.Errorf("Expected 3 remaining, got %d", got)
	}
}

func TestSubmissionLimiter_NextSlot(t *testing.T) {
	l := NewSubmissionLimiter(1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := l.NextSlot(now); !got.IsZero() {
		t.Errorf("Expected zero time while a slot is open, got %v", got)
	}
	l.TryAcquire(now)
	want := now.Add(time.Hour)
	if got := l.NextSlot(now); !got.Equal(want) {
		t.Errorf("Expected next slot at %v, got %v", want, got)
	}
}

func TestSubmissionLimiter_ConcurrentAcquire(t *testing.T) {
	const limit = 10
	l := NewSubmissionLimiter(limit)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	granted := make(chan bool, limit*3)
	for i := 0; i < limit*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted <- l.TryAcquire(now)
		}()
	}
	wg.Wait()
	close(granted)

	var count int
	for ok := range granted {
		if ok {
			count++
		}
	}
	if count != limit {
		t.Errorf("Expected exactly %d concurrent grants, got %d", limit, count)
	}
}

func TestSubmissionLimiter_Reset(t *testing.T) {
	l := NewSubmissionLimiter(1)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.TryAcquire(now)
	l.Reset()
	if !l.TryAcquire(now) {
		t.Error("Expected a slot after reset")
	}
}

func TestSubmissionLimiter_MinimumLimit(t *testing.T) {
	l := NewSubmissionLimiter(0)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !l.TryAcquire(now) {
		t.Error("Expected a zero limit to clamp to one slot")
	}
	if l.TryAcquire(now) {
		t.Error("Expected only one slot after clamping")
	}
}
