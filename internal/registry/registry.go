package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// Listener receives bridge lifecycle notifications. Calls arrive on a
// dedicated worker goroutine, one at a time, in the order the registry
// classified them; listeners may block without holding up the registry.
type Listener interface {
	// BridgeAdded fires once when an address first appears.
	BridgeAdded(r *bridge.Record)

	// BridgeRemoved fires once when an address leaves the registry. For a
	// given address it always follows the matching BridgeAdded.
	BridgeRemoved(r *bridge.Record)

	// BridgeFailedHealthCheck fires when a health probe reported a
	// bridge-side malfunction. The record stays registered but conferences
	// running on it should be moved off. Probe timeouts do not fire this.
	BridgeFailedHealthCheck(r *bridge.Record)
}

// Registry is the thread-safe set of known bridges, keyed by address.
// Presence updates create and refresh records; offline presence and
// administrative removal destroy them. Health-check outcomes arrive through
// the OnHealth* callbacks.
type Registry struct {
	now    func() time.Time // injectable for deterministic tests
	events *eventQueue

	mu      sync.Mutex
	cfg     config.BridgeConfig
	records map[bridge.Address]*bridge.Record

	lmu       sync.Mutex
	listeners []Listener
}

// New creates an empty Registry with the given bridge tuning.
func New(cfg config.BridgeConfig) *Registry {
	return &Registry{
		now:     time.Now,
		events:  newEventQueue(),
		cfg:     cfg,
		records: make(map[bridge.Address]*bridge.Record),
	}
}

// AddOrUpdate refreshes the record for addr, creating it first if needed.
// The create path emits BridgeAdded. Concurrent calls for the same address
// collapse onto a single record. stats may be nil.
func (g *Registry) AddOrUpdate(addr bridge.Address, stats bridge.Stats) *bridge.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[addr]
	if !ok {
		rec = bridge.NewRecord(addr, g.cfg, g.now)
		g.records[addr] = rec
	}
	if stats != nil {
		rec.SetStats(stats)
	}
	if !ok {
		slog.Info("registry: bridge added", "bridge", addr)
		g.emit(func(l Listener) { l.BridgeAdded(rec) })
	}
	return rec
}

// Remove destroys the record for addr and emits BridgeRemoved.
// Removing an unknown address is a no-op.
func (g *Registry) Remove(addr bridge.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[addr]
	if !ok {
		return
	}
	delete(g.records, addr)
	slog.Info("registry: bridge removed", "bridge", addr)
	g.emit(func(l Listener) { l.BridgeRemoved(rec) })
}

// Get returns the record for addr, or nil.
func (g *Registry) Get(addr bridge.Address) *bridge.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.records[addr]
}

// SnapshotSorted returns a stable copy of the current records, ordered by
// the bridge comparator: healthy first, then in-shutdown, then
// non-operational, each tier by ascending stress.
func (g *Registry) SnapshotSorted() []*bridge.Record {
	g.mu.Lock()
	out := make([]*bridge.Record, 0, len(g.records))
	for _, rec := range g.records {
		out = append(out, rec)
	}
	g.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return bridge.Compare(out[i], out[j]) < 0
	})
	return out
}

// CountTotal returns the number of registered bridges.
func (g *Registry) CountTotal() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

// CountOperational returns the number of bridges currently reported
// operational (the failure-reset lockout applies).
func (g *Registry) CountOperational() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, rec := range g.records {
		if rec.IsOperational() {
			n++
		}
	}
	return n
}

// CountInShutdown returns the number of bridges in graceful shutdown.
func (g *Registry) CountInShutdown() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, rec := range g.records {
		if rec.IsInGracefulShutdown() {
			n++
		}
	}
	return n
}

// OnHealthPassed marks addr operational. The failure-reset lockout may keep
// IsOperational false for a while after the first pass following a failure.
func (g *Registry) OnHealthPassed(addr bridge.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[addr]
	if !ok {
		return
	}
	rec.SetOperational(true)
}

// OnHealthFailed quarantines addr and notifies listeners that conferences
// should be moved off it.
func (g *Registry) OnHealthFailed(addr bridge.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[addr]
	if !ok {
		return
	}
	rec.SetOperational(false)
	slog.Warn("registry: bridge failed health check", "bridge", addr)
	g.emit(func(l Listener) { l.BridgeFailedHealthCheck(rec) })
}

// OnHealthTimedOut quarantines addr without asking conferences to drain.
// A transient network fault between focus and bridge should not cause a
// stampede of relocations; signalling failures force drains independently.
func (g *Registry) OnHealthTimedOut(addr bridge.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[addr]
	if !ok {
		return
	}
	slog.Warn("registry: bridge health check timed out", "bridge", addr)
	rec.SetOperational(false)
}

// Subscribe registers l for lifecycle notifications.
func (g *Registry) Subscribe(l Listener) {
	g.lmu.Lock()
	defer g.lmu.Unlock()
	g.listeners = append(g.listeners, l)
}

// Unsubscribe removes l. Notifications already queued may still arrive.
func (g *Registry) Unsubscribe(l Listener) {
	g.lmu.Lock()
	defer g.lmu.Unlock()
	for i, existing := range g.listeners {
		if existing == l {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// ApplyConfig swaps the bridge load-model tuning on every current and
// future record, used by config hot reload.
func (g *Registry) ApplyConfig(cfg config.BridgeConfig) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg
	for _, rec := range g.records {
		rec.ApplyConfig(cfg)
	}
}

// Sync blocks until every listener notification emitted before the call has
// been delivered.
func (g *Registry) Sync() {
	g.events.sync()
}

// Close stops the event worker after draining queued notifications.
func (g *Registry) Close() {
	g.events.close()
}

// emit queues a notification for the current listener set. Callers hold g.mu,
// so enqueue order equals the order mutations were classified; enqueue never
// blocks, so holding the lock across it is safe.
func (g *Registry) emit(deliver func(Listener)) {
	g.lmu.Lock()
	targets := make([]Listener, len(g.listeners))
	copy(targets, g.listeners)
	g.lmu.Unlock()

	g.events.enqueue(func() {
		for _, l := range targets {
			deliver(l)
		}
	})
}
