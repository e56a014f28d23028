package bridge

import (
	"testing"
	"time"
)

func TestRateTracker_CountWithinWindow(t *testing.T) {
	tr := NewRateTracker(20 * time.Second)
	now := baseTime

	tr.Add(now)
	tr.Add(now.Add(time.Second))
	tr.Add(now.Add(2 * time.Second))

	if got := tr.Count(now.Add(3 * time.Second)); got != 3 {
		t.Errorf("Count: got %d, want 3", got)
	}
}

func TestRateTracker_DecaysOutsideWindow(t *testing.T) {
	tr := NewRateTracker(20 * time.Second)
	now := baseTime

	tr.Add(now)
	tr.Add(now.Add(15 * time.Second))

	// 21 s after the first event: only the second survives.
	if got := tr.Count(now.Add(21 * time.Second)); got != 1 {
		t.Errorf("Count after partial decay: got %d, want 1", got)
	}

	// Far past the window: everything decays.
	if got := tr.Count(now.Add(time.Minute)); got != 0 {
		t.Errorf("Count after full decay: got %d, want 0", got)
	}
}

func TestRateTracker_SubBucketEventsShareABucket(t *testing.T) {
	tr := NewRateTracker(20 * time.Second)
	now := baseTime

	tr.Add(now)
	tr.Add(now.Add(30 * time.Millisecond)) // same 100 ms bucket

	if got := tr.Count(now.Add(50 * time.Millisecond)); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
}

func TestRateTracker_TinyWindowStillHasOneBucket(t *testing.T) {
	tr := NewRateTracker(time.Millisecond)
	now := baseTime

	tr.Add(now)
	if got := tr.Count(now); got != 1 {
		t.Errorf("Count: got %d, want 1", got)
	}
	if got := tr.Count(now.Add(200 * time.Millisecond)); got != 0 {
		t.Errorf("Count after window: got %d, want 0", got)
	}
}
