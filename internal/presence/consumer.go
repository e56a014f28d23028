package presence

import (
	"log/slog"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/registry"
)

// Consumer binds brewery presence events to the registry: a status update
// creates or refreshes the bridge's record, an offline notice destroys it.
// It implements transport.PresenceHandler.
type Consumer struct {
	registry *registry.Registry
}

// New creates a Consumer feeding reg.
func New(reg *registry.Registry) *Consumer {
	return &Consumer{registry: reg}
}

// InstanceStatusChanged ingests a presence status snapshot for addr.
func (c *Consumer) InstanceStatusChanged(addr bridge.Address, stats bridge.Stats) {
	if addr == "" {
		slog.Warn("presence: status with empty address, dropping")
		return
	}
	c.registry.AddOrUpdate(addr, stats)
	slog.Debug("presence: status ingested", "bridge", addr, "stats", len(stats))
}

// InstanceOffline removes addr from the registry.
func (c *Consumer) InstanceOffline(addr bridge.Address) {
	if addr == "" {
		slog.Warn("presence: offline with empty address, dropping")
		return
	}
	c.registry.Remove(addr)
}
