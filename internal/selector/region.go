package selector

import (
	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// regionStrategy is the primary production strategy: keep the participant
// on a non-overloaded bridge already hosting the conference in their
// region; failing that stay in the region group; failing that accept an
// overloaded bridge rather than crossing regions; place cross-region only
// as a last resort.
type regionStrategy struct {
	*picker
}

func (s *regionStrategy) Name() string { return config.StrategyRegion }

func (s *regionStrategy) Stats() map[string]int64 { return s.counters.Snapshot() }

func (s *regionStrategy) Select(cands []*bridge.Record, conf ConferenceBridges,
	region string, allowMultiBridge bool) *bridge.Record {

	if b, ok := pinned(conf, allowMultiBridge); ok {
		return b
	}
	if len(cands) == 0 {
		return nil
	}

	if b := s.notLoadedInConferenceInRegion(cands, conf, region); b != nil {
		return b
	}
	if b := s.notLoadedInConferenceInRegionGroup(cands, conf, region); b != nil {
		return b
	}
	if b := s.notLoadedInRegion(cands, region); b != nil {
		return b
	}
	if b := s.notLoadedInRegionGroup(cands, region); b != nil {
		return b
	}
	if b := s.leastLoadedInConferenceInRegion(cands, conf, region); b != nil {
		return b
	}
	if b := s.leastLoadedInConferenceInRegionGroup(cands, conf, region); b != nil {
		return b
	}
	if b := s.leastLoadedInRegion(cands, region); b != nil {
		return b
	}
	if b := s.leastLoadedInRegionGroup(cands, region); b != nil {
		return b
	}
	if b := s.notLoadedInConference(cands, conf); b != nil {
		return b
	}
	return s.leastLoaded(cands)
}
