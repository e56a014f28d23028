package bridge

import (
	"sync"
	"time"
)

// trackerBucketSize is the resolution of the endpoint rate tracker.
const trackerBucketSize = 100 * time.Millisecond

// RateTracker counts events inside a sliding time window using fixed-size
// buckets. Old buckets decay automatically as the window advances, so the
// running count estimates recent activity not yet reflected in reported
// stats.
//
// RateTracker is safe for concurrent use.
type RateTracker struct {
	mu        sync.Mutex
	buckets   []int
	head      int       // index of the bucket covering headStart
	headStart time.Time // start instant of the head bucket; zero until first use
	total     int       // running sum of all buckets
}

// NewRateTracker creates a tracker covering the given window, rounded up to
// a whole number of 100 ms buckets.
func NewRateTracker(window time.Duration) *RateTracker {
	n := int((window + trackerBucketSize - 1) / trackerBucketSize)
	if n < 1 {
		n = 1
	}
	return &RateTracker{buckets: make([]int, n)}
}

// Add records one event at now.
func (t *RateTracker) Add(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(now)
	t.buckets[t.head]++
	t.total++
}

// Count returns the number of events recorded within the window ending at now.
func (t *RateTracker) Count(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advance(now)
	return t.total
}

// advance rotates the ring forward so the head bucket covers now, zeroing
// every bucket that slid out of the window. Callers must hold mu.
func (t *RateTracker) advance(now time.Time) {
	if t.headStart.IsZero() {
		t.headStart = now.Truncate(trackerBucketSize)
		return
	}
	steps := int(now.Sub(t.headStart) / trackerBucketSize)
	if steps <= 0 {
		return
	}
	if steps >= len(t.buckets) {
		// The whole window slid past; everything decays.
		for i := range t.buckets {
			t.buckets[i] = 0
		}
		t.total = 0
		t.head = 0
		t.headStart = now.Truncate(trackerBucketSize)
		return
	}
	for i := 0; i < steps; i++ {
		t.head = (t.head + 1) % len(t.buckets)
		t.total -= t.buckets[t.head]
		t.buckets[t.head] = 0
	}
	t.headStart = t.headStart.Add(time.Duration(steps) * trackerBucketSize)
}
