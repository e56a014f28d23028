package selector

import "sync/atomic"

// Counters tracks how often each selection rule fired. The counts are
// observational — no selection logic depends on them — and are exposed
// through the selector's statistics snapshot.
type Counters struct {
	NotLoadedInConferenceInRegion        atomic.Int64
	NotLoadedInConferenceInRegionGroup   atomic.Int64
	NotLoadedInRegion                    atomic.Int64
	NotLoadedInRegionGroup               atomic.Int64
	LeastLoadedInConferenceInRegion      atomic.Int64
	LeastLoadedInConferenceInRegionGroup atomic.Int64
	LeastLoadedInRegion                  atomic.Int64
	LeastLoadedInRegionGroup             atomic.Int64
	NotLoadedInConference                atomic.Int64
	LeastLoaded                          atomic.Int64
	SplitNewBridge                       atomic.Int64
	SplitExistingBridge                  atomic.Int64
}

// Snapshot returns the current counts as a name→value mapping.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"total_not_loaded_in_conference_in_region":         c.NotLoadedInConferenceInRegion.Load(),
		"total_not_loaded_in_conference_in_region_group":   c.NotLoadedInConferenceInRegionGroup.Load(),
		"total_not_loaded_in_region":                       c.NotLoadedInRegion.Load(),
		"total_not_loaded_in_region_group":                 c.NotLoadedInRegionGroup.Load(),
		"total_least_loaded_in_conference_in_region":       c.LeastLoadedInConferenceInRegion.Load(),
		"total_least_loaded_in_conference_in_region_group": c.LeastLoadedInConferenceInRegionGroup.Load(),
		"total_least_loaded_in_region":                     c.LeastLoadedInRegion.Load(),
		"total_least_loaded_in_region_group":               c.LeastLoadedInRegionGroup.Load(),
		"total_not_loaded_in_conference":                   c.NotLoadedInConference.Load(),
		"total_least_loaded":                               c.LeastLoaded.Load(),
		"total_split_new_bridge":                           c.SplitNewBridge.Load(),
		"total_split_existing_bridge":                      c.SplitExistingBridge.Load(),
	}
}
