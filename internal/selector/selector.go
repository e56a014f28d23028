package selector

import (
	"log/slog"
	"sync"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/registry"
)

// Selector is the single entry point for bridge selection. It snapshots the
// registry, filters to usable bridges, delegates the pick to the configured
// strategy and books the new endpoint on the winner.
type Selector struct {
	registry *registry.Registry
	logger   *slog.Logger

	mu          sync.Mutex
	strategy    Strategy
	octoEnabled bool
}

func New(reg *registry.Registry, strategy Strategy, octoEnabled bool, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		registry:    reg,
		logger:      logger.With("component", "selector"),
		strategy:    strategy,
		octoEnabled: octoEnabled,
	}
}

// SelectBridge picks a bridge for a participant joining a conference.
// conference holds the bridges already serving it with their participant
// counts. Returns nil when no bridge can take the participant.
func (s *Selector) SelectBridge(conference ConferenceBridges, participantRegion string) *bridge.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.registry.SnapshotSorted()

	cands := filterUsable(snapshot, false)
	if len(cands) == 0 {
		// No fully healthy bridge. Bridges draining toward shutdown can
		// still host participants, so fall back to them before giving up.
		cands = filterUsable(snapshot, true)
	}

	picked := s.strategy.Select(cands, conference, participantRegion, s.octoEnabled)
	if picked == nil {
		s.logger.Warn("no bridge available",
			"strategy", s.strategy.Name(),
			"region", participantRegion,
			"candidates", len(cands),
			"conference_bridges", len(conference))
		return nil
	}

	picked.EndpointAdded()
	s.logger.Debug("selected bridge",
		"bridge", picked.Address(),
		"strategy", s.strategy.Name(),
		"region", participantRegion)
	return picked
}

// StrategyName returns the config name of the active strategy.
func (s *Selector) StrategyName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Name()
}

// Stats reports the per-rule fire counts plus registry-level bridge counts.
func (s *Selector) Stats() map[string]int64 {
	s.mu.Lock()
	stats := s.strategy.Stats()
	s.mu.Unlock()

	stats["bridge_count"] = int64(s.registry.CountTotal())
	stats["operational_bridge_count"] = int64(s.registry.CountOperational())
	stats["in_shutdown_bridge_count"] = int64(s.registry.CountInShutdown())
	return stats
}

// filterUsable keeps operational bridges. Sorted order is preserved, so the
// result stays sorted by ascending stress. With includeShutdown the graceful
// shutdown flag is ignored, which is the degraded fallback path.
func filterUsable(snapshot []*bridge.Record, includeShutdown bool) []*bridge.Record {
	out := make([]*bridge.Record, 0, len(snapshot))
	for _, b := range snapshot {
		if !b.IsOperational() {
			continue
		}
		if !includeShutdown && b.IsInGracefulShutdown() {
			continue
		}
		out = append(out, b)
	}
	return out
}
