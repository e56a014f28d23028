package health

import (
	"context"
	"errors"
	"testing"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/transport"
)

// fakeRequester returns a scripted error from RequestHealth.
type fakeRequester struct {
	connected bool
	err       error
}

func (r *fakeRequester) Connected() bool { return r.connected }

func (r *fakeRequester) RequestHealth(ctx context.Context, addr bridge.Address) error {
	return r.err
}

func TestTransportProber_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Result
	}{
		{"success reply", nil, ResultPassed},
		{"reply timeout", transport.ErrReplyTimeout, ResultTimedOut},
		{"internal server error",
			&transport.ConditionError{Condition: transport.ConditionInternalServerError},
			ResultFailed},
		{"service unavailable",
			&transport.ConditionError{Condition: transport.ConditionServiceUnavailable},
			ResultFailed},
		{"other condition",
			&transport.ConditionError{Condition: "item-not-found"},
			ResultIndeterminate},
		{"transport failure", errors.New("connection reset"), ResultIndeterminate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewTransportProber(&fakeRequester{connected: true, err: tc.err})
			got, _ := p.Probe(context.Background(), "jvb-1")
			if got != tc.want {
				t.Errorf("Probe: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTransportProber_ConnectedDelegates(t *testing.T) {
	p := NewTransportProber(&fakeRequester{connected: false})
	if p.Connected() {
		t.Error("Connected: got true, want false")
	}
}
