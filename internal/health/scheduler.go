package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// Result classifies one probe attempt.
type Result int

const (
	// ResultPassed is a success reply: the bridge is healthy.
	ResultPassed Result = iota

	// ResultFailed is a reply reporting a bridge-side malfunction.
	ResultFailed

	// ResultTimedOut means no reply arrived within the reply timeout.
	ResultTimedOut

	// ResultIndeterminate is any other outcome (unexpected error condition,
	// transport hiccup). It is logged and produces no state change.
	ResultIndeterminate
)

// Prober performs one health probe attempt against a bridge.
type Prober interface {
	// Connected reports whether the underlying transport is usable.
	// While false the scheduler skips probe runs without emitting outcomes.
	Connected() bool

	// Probe sends one health request to addr and classifies the reply.
	// The returned error carries detail for ResultIndeterminate logging.
	Probe(ctx context.Context, addr bridge.Address) (Result, error)
}

// Sink receives classified probe outcomes; the registry implements it.
type Sink interface {
	OnHealthPassed(addr bridge.Address)
	OnHealthFailed(addr bridge.Address)
	OnHealthTimedOut(addr bridge.Address)
}

// Scheduler runs one periodic probe task per registered bridge. It is a
// registry listener: BridgeAdded starts a task, BridgeRemoved cancels it,
// interrupting any probe in flight.
type Scheduler struct {
	cfg    config.HealthConfig
	prober Prober
	sink   Sink

	mu    sync.Mutex
	tasks map[bridge.Address]*task
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler probing through p and reporting to sink.
func NewScheduler(cfg config.HealthConfig, p Prober, sink Sink) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		prober: p,
		sink:   sink,
		tasks:  make(map[bridge.Address]*task),
	}
}

// BridgeAdded schedules the periodic probe task for r. The first probe runs
// one full interval after scheduling. A duplicate add is a no-op.
func (s *Scheduler) BridgeAdded(r *bridge.Record) {
	addr := r.Address()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks == nil {
		return // shut down
	}
	if _, ok := s.tasks[addr]; ok {
		slog.Warn("health: bridge already scheduled", "bridge", addr)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.tasks[addr] = t

	slog.Info("health: scheduling checks", "bridge", addr, "interval", s.cfg.Interval)
	go s.run(ctx, addr, t)
}

// BridgeRemoved cancels the probe task for r. An in-flight probe observes
// the cancellation at its next checkpoint and emits no outcome.
func (s *Scheduler) BridgeRemoved(r *bridge.Record) {
	addr := r.Address()

	s.mu.Lock()
	t, ok := s.tasks[addr]
	if ok {
		delete(s.tasks, addr)
	}
	s.mu.Unlock()

	if ok {
		t.cancel()
	}
}

// BridgeFailedHealthCheck implements registry.Listener; the scheduler keeps
// probing a failed bridge so it can recover.
func (s *Scheduler) BridgeFailedHealthCheck(r *bridge.Record) {}

// Shutdown cancels every task and waits for them to exit.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

func (s *Scheduler) run(ctx context.Context, addr bridge.Address, t *task) {
	defer close(t.done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probeOnce(ctx, addr)
		}
	}
}

// probeOnce is one execution of the periodic task: probe, optionally give a
// timed-out probe a second chance, classify, and notify the sink. A probe
// that errors unexpectedly is logged and the task keeps running.
func (s *Scheduler) probeOnce(ctx context.Context, addr bridge.Address) {
	if !s.prober.Connected() {
		slog.Debug("health: transport not connected, skipping check", "bridge", addr)
		return
	}
	if ctx.Err() != nil {
		return
	}

	res, err := s.prober.Probe(ctx, addr)

	if res == ResultTimedOut && s.cfg.RetryDelay > 0 {
		// Second chance: one delayed retry of the same request, with
		// cancellation checkpoints on both sides of the sleep.
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RetryDelay):
		}
		if ctx.Err() != nil {
			return
		}
		res, err = s.prober.Probe(ctx, addr)
	}

	// The bridge may have been removed while the probe was in flight; a
	// late outcome must not touch a resurrected record of the same address.
	if ctx.Err() != nil {
		return
	}

	switch res {
	case ResultPassed:
		s.sink.OnHealthPassed(addr)
	case ResultFailed:
		slog.Warn("health: check failed", "bridge", addr, "err", err)
		s.sink.OnHealthFailed(addr)
	case ResultTimedOut:
		s.sink.OnHealthTimedOut(addr)
	case ResultIndeterminate:
		slog.Warn("health: unexpected probe outcome", "bridge", addr, "err", err)
	}
}
