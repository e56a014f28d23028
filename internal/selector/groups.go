package selector

import "sync"

// RegionGroups is a static partition of regions a strategy may treat as
// equivalent for near-placement. It is safe for concurrent use and may be
// swapped at runtime by config hot reload.
type RegionGroups struct {
	mu     sync.RWMutex
	member map[string]map[string]struct{} // region → its group's member set
}

// NewRegionGroups builds the lookup from config-shaped group lists.
func NewRegionGroups(groups [][]string) *RegionGroups {
	g := &RegionGroups{}
	g.Update(groups)
	return g
}

// Update atomically replaces the partition.
func (g *RegionGroups) Update(groups [][]string) {
	member := make(map[string]map[string]struct{})
	for _, group := range groups {
		set := make(map[string]struct{}, len(group))
		for _, region := range group {
			set[region] = struct{}{}
		}
		for _, region := range group {
			member[region] = set
		}
	}

	g.mu.Lock()
	g.member = member
	g.mu.Unlock()
}

// Contains reports whether candidateRegion belongs to participantRegion's
// group. A region with no configured group forms a singleton, so the check
// degrades to plain region equality. An empty participant region matches
// nothing.
func (g *RegionGroups) Contains(participantRegion, candidateRegion string) bool {
	if participantRegion == "" || candidateRegion == "" {
		return false
	}

	g.mu.RLock()
	set := g.member[participantRegion]
	g.mu.RUnlock()

	if set == nil {
		return candidateRegion == participantRegion
	}
	_, ok := set[candidateRegion]
	return ok
}
