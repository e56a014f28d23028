package health

import (
	"context"
	"errors"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/transport"
)

// Requester is the request/reply surface of the brewery transport.
type Requester interface {
	Connected() bool
	RequestHealth(ctx context.Context, addr bridge.Address) error
}

// TransportProber probes bridges through the brewery session's
// request/reply channel. This is the default backend.
type TransportProber struct {
	req Requester
}

// NewTransportProber creates a TransportProber on top of req.
func NewTransportProber(req Requester) *TransportProber {
	return &TransportProber{req: req}
}

// Connected reports whether the brewery session is up.
func (p *TransportProber) Connected() bool {
	return p.req.Connected()
}

// Probe sends one health request and classifies the reply. Error replies
// with conditions other than internal-server-error or service-unavailable
// are indeterminate: logged by the scheduler, no state change.
func (p *TransportProber) Probe(ctx context.Context, addr bridge.Address) (Result, error) {
	err := p.req.RequestHealth(ctx, addr)
	if err == nil {
		return ResultPassed, nil
	}
	if errors.Is(err, transport.ErrReplyTimeout) {
		return ResultTimedOut, err
	}

	var cond *transport.ConditionError
	if errors.As(err, &cond) {
		switch cond.Condition {
		case transport.ConditionInternalServerError, transport.ConditionServiceUnavailable:
			return ResultFailed, err
		}
	}
	return ResultIndeterminate, err
}
