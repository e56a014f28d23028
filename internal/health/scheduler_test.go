package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

const testInterval = 20 * time.Millisecond

// fakeProber scripts probe results per attempt; the last entry repeats.
type fakeProber struct {
	mu        sync.Mutex
	connected bool
	script    []Result
	attempts  int
}

func (p *fakeProber) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakeProber) Probe(ctx context.Context, addr bridge.Address) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.attempts
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	p.attempts++
	return p.script[i], nil
}

func (p *fakeProber) attemptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// fakeSink records classified outcomes per kind.
type fakeSink struct {
	mu       sync.Mutex
	passed   int
	failed   int
	timedOut int
}

func (s *fakeSink) OnHealthPassed(addr bridge.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passed++
}

func (s *fakeSink) OnHealthFailed(addr bridge.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

func (s *fakeSink) OnHealthTimedOut(addr bridge.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timedOut++
}

func (s *fakeSink) counts() (passed, failed, timedOut int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passed, s.failed, s.timedOut
}

func testRecord(addr string) *bridge.Record {
	return bridge.NewRecord(bridge.Address(addr), config.BridgeConfig{
		ParticipantRampupInterval:       20 * time.Second,
		AverageParticipantPacketRatePps: 500,
		StressThreshold:                 0.8,
	}, nil)
}

func newScheduler(t *testing.T, p Prober, sink Sink, retryDelay time.Duration) *Scheduler {
	t.Helper()
	s := NewScheduler(config.HealthConfig{
		Interval:   testInterval,
		RetryDelay: retryDelay,
	}, p, sink)
	t.Cleanup(s.Shutdown)
	return s
}

// waitFor polls cond until it holds or the deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// --- outcomes ---

func TestScheduler_PassedReachesSink(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultPassed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	s.BridgeAdded(testRecord("jvb-1"))

	waitFor(t, "a passed outcome", func() bool {
		passed, _, _ := sink.counts()
		return passed >= 1
	})
}

func TestScheduler_FailedReachesSink(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultFailed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	s.BridgeAdded(testRecord("jvb-1"))

	waitFor(t, "a failed outcome", func() bool {
		_, failed, _ := sink.counts()
		return failed >= 1
	})
}

func TestScheduler_SecondChanceRecovers(t *testing.T) {
	// First attempt times out, retry passes: the task run must report a pass
	// and never a timeout.
	p := &fakeProber{connected: true, script: []Result{ResultTimedOut, ResultPassed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, time.Millisecond)

	s.BridgeAdded(testRecord("jvb-1"))

	waitFor(t, "a passed outcome", func() bool {
		passed, _, _ := sink.counts()
		return passed >= 1
	})
	_, _, timedOut := sink.counts()
	if timedOut != 0 {
		t.Errorf("timeouts reported despite successful second chance: %d", timedOut)
	}
	if got := p.attemptCount(); got < 2 {
		t.Errorf("attempts: got %d, want at least 2", got)
	}
}

func TestScheduler_ZeroRetryDelayDisablesSecondChance(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultTimedOut}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	s.BridgeAdded(testRecord("jvb-1"))

	waitFor(t, "a timeout outcome", func() bool {
		_, _, timedOut := sink.counts()
		return timedOut >= 1
	})
	// One tick, one attempt: no retry happened before the first outcome.
	if got := p.attemptCount(); got < 1 {
		t.Errorf("attempts: got %d, want at least 1", got)
	}
}

func TestScheduler_IndeterminateEmitsNothing(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultIndeterminate}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	s.BridgeAdded(testRecord("jvb-1"))

	waitFor(t, "probe attempts", func() bool { return p.attemptCount() >= 2 })
	passed, failed, timedOut := sink.counts()
	if passed != 0 || failed != 0 || timedOut != 0 {
		t.Errorf("indeterminate outcome must emit nothing: passed=%d failed=%d timedOut=%d",
			passed, failed, timedOut)
	}
}

func TestScheduler_DisconnectedTransportSkips(t *testing.T) {
	p := &fakeProber{connected: false, script: []Result{ResultPassed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	s.BridgeAdded(testRecord("jvb-1"))

	time.Sleep(5 * testInterval)
	if got := p.attemptCount(); got != 0 {
		t.Errorf("attempts while disconnected: got %d, want 0", got)
	}
	passed, failed, timedOut := sink.counts()
	if passed+failed+timedOut != 0 {
		t.Error("no outcomes must be emitted while disconnected")
	}
}

// --- lifecycle ---

func TestScheduler_DuplicateAddIsNoOp(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultPassed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	rec := testRecord("jvb-1")
	s.BridgeAdded(rec)
	s.BridgeAdded(rec)

	waitFor(t, "steady probing", func() bool { return p.attemptCount() >= 3 })

	// With a single task, attempts accumulate roughly once per interval; a
	// duplicate task would double the rate. Allow generous slack.
	before := p.attemptCount()
	time.Sleep(10 * testInterval)
	delta := p.attemptCount() - before
	if delta > 15 {
		t.Errorf("probe rate suggests a duplicate task: %d attempts in 10 intervals", delta)
	}
}

func TestScheduler_RemoveCancelsTask(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultPassed}}
	sink := &fakeSink{}
	s := newScheduler(t, p, sink, 0)

	rec := testRecord("jvb-1")
	s.BridgeAdded(rec)
	waitFor(t, "first probe", func() bool { return p.attemptCount() >= 1 })

	s.BridgeRemoved(rec)
	time.Sleep(2 * testInterval) // let an in-flight tick drain
	before := p.attemptCount()
	time.Sleep(5 * testInterval)
	if got := p.attemptCount(); got != before {
		t.Errorf("probing continued after removal: %d -> %d", before, got)
	}
}

func TestScheduler_ShutdownStopsEverything(t *testing.T) {
	p := &fakeProber{connected: true, script: []Result{ResultPassed}}
	sink := &fakeSink{}
	s := NewScheduler(config.HealthConfig{Interval: testInterval}, p, sink)

	s.BridgeAdded(testRecord("jvb-1"))
	s.BridgeAdded(testRecord("jvb-2"))
	waitFor(t, "probing", func() bool { return p.attemptCount() >= 2 })

	s.Shutdown()
	before := p.attemptCount()
	time.Sleep(5 * testInterval)
	if got := p.attemptCount(); got != before {
		t.Errorf("probing continued after shutdown: %d -> %d", before, got)
	}

	// Adds after shutdown are ignored.
	s.BridgeAdded(testRecord("jvb-3"))
	time.Sleep(2 * testInterval)
	if got := p.attemptCount(); got != before {
		t.Error("a bridge added after shutdown must not be probed")
	}
}
