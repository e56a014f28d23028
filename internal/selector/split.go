package selector

import (
	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// splitStrategy spreads a conference across as many bridges as possible.
// It is a cascade-relay exercise tool, not a production policy.
type splitStrategy struct {
	*picker
}

func (s *splitStrategy) Name() string { return config.StrategySplit }

func (s *splitStrategy) Stats() map[string]int64 { return s.counters.Snapshot() }

func (s *splitStrategy) Select(cands []*bridge.Record, conf ConferenceBridges,
	region string, allowMultiBridge bool) *bridge.Record {

	// Splitting only works when bridges can relay to each other, so the
	// strategy behaves as if cascading were always allowed. A conference
	// whose first bridge cannot relay still gets pinned to it.
	if b, ok := pinned(conf, true); ok {
		return b
	}
	if len(cands) == 0 {
		return nil
	}

	for _, b := range cands {
		if !conf.contains(b) {
			s.counters.SplitNewBridge.Add(1)
			return b
		}
	}

	// Every candidate already hosts the conference. Reuse the one with
	// the fewest participants, breaking ties by address.
	var best *bridge.Record
	bestCount := 0
	for _, b := range cands {
		n := conf[b]
		if best == nil || n < bestCount || (n == bestCount && b.Address() < best.Address()) {
			best = b
			bestCount = n
		}
	}
	s.counters.SplitExistingBridge.Add(1)
	return best
}
