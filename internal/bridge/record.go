package bridge

import (
	"strings"
	"sync"
	"time"

	"github.com/confocus/confocus/internal/config"
)

// Address identifies a bridge: a structured name with an optional resource
// part after the last '/'. It is the unique registry key.
type Address string

// Bare returns the address without its resource part.
func (a Address) Bare() string {
	if i := strings.LastIndexByte(string(a), '/'); i >= 0 {
		return string(a)[:i]
	}
	return string(a)
}

// Resource returns the resource part, or "" when the address has none.
func (a Address) Resource() string {
	if i := strings.LastIndexByte(string(a), '/'); i >= 0 {
		return string(a)[i+1:]
	}
	return ""
}

// Priority tiers used by Compare. Lower sorts first.
const (
	tierHealthy    = 1 // operational, not in graceful shutdown
	tierShutdown   = 2 // operational, in graceful shutdown
	tierNonWorking = 3 // non-operational
)

// Record is the per-bridge state held by the registry: the latest status
// snapshot, the derived stress estimate, the operational flag with its
// failure-reset lockout, and the recent-endpoint rate tracker.
//
// All exported methods are safe for concurrent use.
type Record struct {
	address Address
	now     func() time.Time
	tracker *RateTracker

	mu                   sync.Mutex
	cfg                  config.BridgeConfig
	region               string
	relayID              string
	version              string
	octoVersion          string
	lastStats            Stats
	lastReportedStress   float64
	usePacketRate        bool // true until the bridge first reports stress_level
	lastPacketRatePps    int
	avgParticipantStress float64
	operational          bool
	failureInstant       time.Time // zero until the first failure
	shutdownInProgress   bool
}

// NewRecord creates an operational Record for addr.
// now is injectable so tests control the clock; use time.Now in production.
func NewRecord(addr Address, cfg config.BridgeConfig, now func() time.Time) *Record {
	if now == nil {
		now = time.Now
	}
	return &Record{
		address:              addr,
		now:                  now,
		tracker:              NewRateTracker(cfg.ParticipantRampupInterval),
		cfg:                  cfg,
		usePacketRate:        true,
		avgParticipantStress: cfg.AverageParticipantStress,
		operational:          true,
	}
}

// Address returns the bridge's registry key.
func (r *Record) Address() Address { return r.address }

// SetStats merges a new status snapshot into the record.
//
// Missing stats never clear previously recorded fields, and a parse failure
// on one field does not abort the rest of the update. Once the bridge has
// reported stress_level directly, the packet-rate stress estimate is never
// used again for this record.
func (r *Record) SetStats(stats Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastStats = stats

	if v, ok := stats.String(StatRegion); ok {
		r.region = v
	}
	if v, ok := stats.String(StatRelayID); ok {
		r.relayID = v
	}
	if v, ok := stats.String(StatVersion); ok {
		r.version = v
	}
	if v, ok := stats.String(StatOctoVersion); ok {
		r.octoVersion = v
	}
	if v, ok := stats.Bool(StatShutdownInProgress); ok {
		// A later snapshot may rescind graceful shutdown.
		r.shutdownInProgress = v
	}
	if v, ok := stats.Float(StatAvgParticipantStress); ok {
		r.avgParticipantStress = v
	}
	if v, ok := stats.Float(StatStressLevel); ok {
		r.lastReportedStress = v
		r.usePacketRate = false
	}

	down, downOK := stats.Int(StatPacketRateDownload)
	up, upOK := stats.Int(StatPacketRateUpload)
	if downOK || upOK {
		r.lastPacketRatePps = down + up
	}
}

// SetOperational writes the operational flag. Every transition to false
// records the failure instant, which starts the failure-reset lockout.
// Setting true does not clear the lockout; IsOperational keeps returning
// false until the reset threshold elapses.
func (r *Record) SetOperational(operational bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !operational {
		r.failureInstant = r.now()
	}
	r.operational = operational
}

// IsOperational reports whether the bridge is usable. It returns false while
// the failure-reset lockout is active regardless of the stored flag, which
// keeps intermittently failing bridges quarantined.
func (r *Record) IsOperational() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isOperationalLocked()
}

func (r *Record) isOperationalLocked() bool {
	if !r.failureInstant.IsZero() &&
		r.now().Sub(r.failureInstant) < r.cfg.FailureResetThreshold {
		return false
	}
	return r.operational
}

// IsInGracefulShutdown reports whether the bridge has announced graceful
// shutdown. Such a bridge is still operational for existing conferences but
// is de-prioritised for new ones.
func (r *Record) IsInGracefulShutdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdownInProgress
}

// EndpointAdded records that a participant was just allocated to this
// bridge, so the load estimate reflects it before the bridge reports.
func (r *Record) EndpointAdded() {
	r.tracker.Add(r.now())
}

// Stress returns the bridge's current load estimate. Values above 1.0 are
// possible and preserve ordering when every bridge is saturated.
func (r *Record) Stress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stressLocked()
}

func (r *Record) stressLocked() float64 {
	recent := r.tracker.Count(r.now())
	if recent < 0 {
		recent = 0
	}
	if r.usePacketRate {
		projected := float64(r.lastPacketRatePps) +
			float64(recent)*float64(r.cfg.AverageParticipantPacketRatePps)
		return projected / float64(r.cfg.MaxBridgePacketRatePps())
	}
	return r.lastReportedStress + float64(recent)*r.avgParticipantStress
}

// IsOverloaded reports whether the stress estimate has reached the
// configured threshold. A stress exactly at the threshold is overloaded.
func (r *Record) IsOverloaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stressLocked() >= r.cfg.StressThreshold
}

// Region returns the bridge's deployment region, or "" when unknown.
func (r *Record) Region() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.region
}

// RelayID returns the bridge's inter-bridge relay identifier. An empty
// relay id means the bridge cannot participate in a multi-bridge conference.
func (r *Record) RelayID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relayID
}

// Version returns the last reported bridge version, or "".
func (r *Record) Version() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// ApplyConfig swaps the load-model tuning, used by config hot reload.
func (r *Record) ApplyConfig(cfg config.BridgeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// priorityTier maps the record's state onto the comparator's primary key.
func (r *Record) priorityTier() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case !r.isOperationalLocked():
		return tierNonWorking
	case r.shutdownInProgress:
		return tierShutdown
	default:
		return tierHealthy
	}
}

// Compare orders two records for the registry snapshot: by priority tier
// (healthy < in-shutdown < non-operational), then by ascending stress, then
// lexicographically by address so equal-stress ties are deterministic.
func Compare(a, b *Record) int {
	at, bt := a.priorityTier(), b.priorityTier()
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	}
	as, bs := a.Stress(), b.Stress()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return strings.Compare(string(a.address), string(b.address))
}

// Info is a point-in-time copy of a record's externally visible state, used
// by the diagnostics API.
type Info struct {
	Address            Address
	Region             string
	RelayID            string
	Version            string
	Stress             float64
	Operational        bool
	ShutdownInProgress bool
	RecentEndpoints    int
}

// Snapshot returns a copy of the record's current state.
func (r *Record) Snapshot() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Info{
		Address:            r.address,
		Region:             r.region,
		RelayID:            r.relayID,
		Version:            r.version,
		Stress:             r.stressLocked(),
		Operational:        r.isOperationalLocked(),
		ShutdownInProgress: r.shutdownInProgress,
		RecentEndpoints:    r.tracker.Count(r.now()),
	}
}
