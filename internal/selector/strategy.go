package selector

import (
	"fmt"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
)

// ConferenceBridges maps each bridge already serving a conference to the
// number of participants it hosts there. An empty mapping means the
// conference has no bridge yet.
type ConferenceBridges map[*bridge.Record]int

func (c ConferenceBridges) contains(b *bridge.Record) bool {
	_, ok := c[b]
	return ok
}

// first returns the conference bridge with the lexicographically smallest
// address, making "the first conference bridge" deterministic for map input.
func (c ConferenceBridges) first() *bridge.Record {
	var first *bridge.Record
	for b := range c {
		if first == nil || b.Address() < first.Address() {
			first = b
		}
	}
	return first
}

// Strategy picks a bridge for a joining participant.
//
// candidates is the registry snapshot, already filtered to operational
// bridges and sorted by ascending stress, so "first match" always means
// "least loaded match". Equal inputs produce equal picks.
type Strategy interface {
	Select(candidates []*bridge.Record, conference ConferenceBridges,
		participantRegion string, allowMultiBridge bool) *bridge.Record

	// Name returns the config name of the strategy.
	Name() string

	// Stats returns the per-rule fire counts.
	Stats() map[string]int64
}

// NewStrategy builds the strategy named in cfg, sharing groups so config
// hot reload reaches it.
func NewStrategy(cfg config.SelectionConfig, groups *RegionGroups) (Strategy, error) {
	p := &picker{groups: groups, counters: &Counters{}}
	switch cfg.Strategy {
	case config.StrategySingle:
		return &singleStrategy{picker: p}, nil
	case config.StrategyRegion:
		return &regionStrategy{picker: p}, nil
	case config.StrategyIntraRegion:
		return &intraRegionStrategy{picker: p}, nil
	case config.StrategySplit:
		return &splitStrategy{picker: p}, nil
	default:
		return nil, fmt.Errorf("selector: unknown strategy %q", cfg.Strategy)
	}
}

// pinned applies the common skeleton: a conference that already has bridges
// stays on its first bridge when multi-bridge is disabled or that bridge
// advertises no relay id. Returns (bridge, true) when the pin applies.
func pinned(conference ConferenceBridges, allowMultiBridge bool) (*bridge.Record, bool) {
	if len(conference) == 0 {
		return nil, false
	}
	first := conference.first()
	if !allowMultiBridge || first.RelayID() == "" {
		return first, true
	}
	return nil, false
}

// picker is the shared primitive library. Every primitive scans candidates
// in order — ascending stress — returns the first match, and bumps its rule
// counter when it fires. Region-conditioned primitives never match an empty
// region, so a participant without one falls through to the region-free
// rules.
type picker struct {
	groups   *RegionGroups
	counters *Counters
}

func (p *picker) notLoadedInConferenceInRegion(cands []*bridge.Record, conf ConferenceBridges, region string) *bridge.Record {
	if region == "" {
		return nil
	}
	for _, b := range cands {
		if !b.IsOverloaded() && conf.contains(b) && b.Region() == region {
			p.counters.NotLoadedInConferenceInRegion.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) notLoadedInConferenceInRegionGroup(cands []*bridge.Record, conf ConferenceBridges, region string) *bridge.Record {
	for _, b := range cands {
		if !b.IsOverloaded() && conf.contains(b) && p.groups.Contains(region, b.Region()) {
			p.counters.NotLoadedInConferenceInRegionGroup.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) notLoadedInRegion(cands []*bridge.Record, region string) *bridge.Record {
	if region == "" {
		return nil
	}
	for _, b := range cands {
		if !b.IsOverloaded() && b.Region() == region {
			p.counters.NotLoadedInRegion.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) notLoadedInRegionGroup(cands []*bridge.Record, region string) *bridge.Record {
	for _, b := range cands {
		if !b.IsOverloaded() && p.groups.Contains(region, b.Region()) {
			p.counters.NotLoadedInRegionGroup.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) leastLoadedInConferenceInRegion(cands []*bridge.Record, conf ConferenceBridges, region string) *bridge.Record {
	if region == "" {
		return nil
	}
	for _, b := range cands {
		if conf.contains(b) && b.Region() == region {
			p.counters.LeastLoadedInConferenceInRegion.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) leastLoadedInConferenceInRegionGroup(cands []*bridge.Record, conf ConferenceBridges, region string) *bridge.Record {
	for _, b := range cands {
		if conf.contains(b) && p.groups.Contains(region, b.Region()) {
			p.counters.LeastLoadedInConferenceInRegionGroup.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) leastLoadedInRegion(cands []*bridge.Record, region string) *bridge.Record {
	if region == "" {
		return nil
	}
	for _, b := range cands {
		if b.Region() == region {
			p.counters.LeastLoadedInRegion.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) leastLoadedInRegionGroup(cands []*bridge.Record, region string) *bridge.Record {
	for _, b := range cands {
		if p.groups.Contains(region, b.Region()) {
			p.counters.LeastLoadedInRegionGroup.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) notLoadedInConference(cands []*bridge.Record, conf ConferenceBridges) *bridge.Record {
	for _, b := range cands {
		if !b.IsOverloaded() && conf.contains(b) {
			p.counters.NotLoadedInConference.Add(1)
			return b
		}
	}
	return nil
}

func (p *picker) leastLoaded(cands []*bridge.Record) *bridge.Record {
	for _, b := range cands {
		p.counters.LeastLoaded.Add(1)
		return b
	}
	return nil
}
