package transport

import (
	"errors"
	"fmt"

	"github.com/confocus/confocus/internal/bridge"
)

// Error conditions carried by structured error replies.
const (
	ConditionInternalServerError = "internal-server-error"
	ConditionServiceUnavailable  = "service-unavailable"
)

// ErrReplyTimeout means no reply arrived within the reply timeout.
var ErrReplyTimeout = errors.New("transport: reply timeout")

// ErrNotConnected means the brewery session is currently down.
var ErrNotConnected = errors.New("transport: not connected")

// ConditionError is an error reply carrying a structured condition.
type ConditionError struct {
	Condition string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("transport: error reply: %s", e.Condition)
}

// PresenceHandler consumes brewery presence events. The registry's presence
// consumer implements it.
type PresenceHandler interface {
	// InstanceStatusChanged fires when a bridge publishes presence with an
	// attached status snapshot.
	InstanceStatusChanged(addr bridge.Address, stats bridge.Stats)

	// InstanceOffline fires when a bridge leaves the room.
	InstanceOffline(addr bridge.Address)
}

// envelope is the JSON message frame exchanged over the brewery session.
type envelope struct {
	// Type is one of: join | status | offline | health | result | error.
	Type      string            `json:"type"`
	Room      string            `json:"room,omitempty"`
	From      string            `json:"from,omitempty"`
	To        string            `json:"to,omitempty"`
	ID        string            `json:"id,omitempty"`
	Condition string            `json:"condition,omitempty"`
	Stats     map[string]string `json:"stats,omitempty"`
}
