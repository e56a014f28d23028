package selector

import (
	"log/slog"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// singleStrategy forbids multi-bridge conferences: a conference gets the
// least-loaded bridge once and stays on it.
type singleStrategy struct {
	*picker
}

func (s *singleStrategy) Name() string { return config.StrategySingle }

func (s *singleStrategy) Stats() map[string]int64 { return s.counters.Snapshot() }

func (s *singleStrategy) Select(cands []*bridge.Record, conf ConferenceBridges,
	region string, allowMultiBridge bool) *bridge.Record {

	switch len(conf) {
	case 0:
		return s.leastLoaded(cands)

	case 1:
		existing := conf.first()
		if existing.IsOperational() {
			return existing
		}
		// The conference's only bridge is down; place the participant on a
		// fresh bridge and let signalling drain the rest.
		slog.Warn("selector: single conference bridge is non-operational, replacing",
			"bridge", existing.Address())
		return s.leastLoaded(cands)

	default:
		slog.Error("selector: single-bridge strategy found a multi-bridge conference",
			"bridges", len(conf))
		return nil
	}
}
