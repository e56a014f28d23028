package selector

import (
	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// intraRegionStrategy keeps a conference inside one region, for load tests
// that stress a single deployment region. The conference's region is
// whatever region its first bridge landed in.
type intraRegionStrategy struct {
	*picker
}

func (s *intraRegionStrategy) Name() string { return config.StrategyIntraRegion }

func (s *intraRegionStrategy) Stats() map[string]int64 { return s.counters.Snapshot() }

func (s *intraRegionStrategy) Select(cands []*bridge.Record, conf ConferenceBridges,
	region string, allowMultiBridge bool) *bridge.Record {

	if b, ok := pinned(conf, allowMultiBridge); ok {
		return b
	}
	if len(cands) == 0 {
		return nil
	}

	if len(conf) == 0 {
		if b := s.notLoadedInRegion(cands, region); b != nil {
			return b
		}
		return s.leastLoaded(cands)
	}

	confRegion := conf.first().Region()
	if b := s.notLoadedInConferenceInRegion(cands, conf, confRegion); b != nil {
		return b
	}
	if b := s.notLoadedInRegion(cands, confRegion); b != nil {
		return b
	}
	return s.leastLoadedInConferenceInRegion(cands, conf, confRegion)
}
