package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHealthInterval   = 10 * time.Second
	DefaultHealthRetryDelay = 5 * time.Second
	DefaultFailureReset     = time.Minute
	DefaultRampupInterval   = 20 * time.Second

	DefaultAvgParticipantStress = 0.01
	DefaultAvgParticipantPps    = 500
	DefaultStressThreshold      = 0.8

	// DefaultMaxBridgeParticipants sizes the packet-rate stress ceiling when
	// max_packet_rate_pps is not set explicitly: the ceiling becomes
	// avg_participant_packet_rate_pps * DefaultMaxBridgeParticipants.
	DefaultMaxBridgeParticipants = 100

	DefaultReplyTimeout = 15 * time.Second
	DefaultDebugPort    = 8017
	DefaultPollInterval = 30 * time.Second
)

// Selection strategy names accepted in focus.selection.strategy.
const (
	StrategySingle      = "single"
	StrategyRegion      = "region"
	StrategyIntraRegion = "intra-region"
	StrategySplit       = "split"
)

// Health probe backends accepted in focus.health_checks.mode.
const (
	HealthModeTransport = "transport"
	HealthModeGRPC      = "grpc"
)

// Config is the top-level configuration for the focus service.
type Config struct {
	Focus FocusConfig `yaml:"focus"`
}

// FocusConfig holds all focus-side settings.
type FocusConfig struct {
	// BreweryURL is the WebSocket endpoint of the presence service
	// (ws://host:port/path).
	BreweryURL string `yaml:"brewery_url"`

	// BreweryRoom is the address of the presence room every bridge joins.
	BreweryRoom string `yaml:"brewery_room"`

	// ReplyTimeout bounds one request/reply exchange on the transport.
	ReplyTimeout time.Duration `yaml:"reply_timeout"`

	// OctoEnabled allows a conference to span multiple bridges connected
	// via inter-bridge relay.
	OctoEnabled bool `yaml:"octo_enabled"`

	// DebugPort is the localhost port the diagnostics HTTP API listens on.
	// 0 disables the API.
	DebugPort int `yaml:"debug_port"`

	HealthChecks HealthConfig    `yaml:"health_checks"`
	Bridge       BridgeConfig    `yaml:"bridge"`
	Selection    SelectionConfig `yaml:"selection"`
	StatsPoller  PollerConfig    `yaml:"stats_poller"`
}

// HealthConfig controls the per-bridge health-check scheduler.
type HealthConfig struct {
	// Interval is the period between probes for one bridge. The first probe
	// runs one full interval after the bridge is added.
	Interval time.Duration `yaml:"interval"`

	// RetryDelay is the pause before the single delayed retry after a probe
	// times out. 0 disables the retry.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Mode selects the probe backend: transport | grpc.
	Mode string `yaml:"mode"`

	// GRPCPort is the port the gRPC health service listens on per bridge.
	// Used only when Mode is "grpc".
	GRPCPort int `yaml:"grpc_port"`
}

// BridgeConfig holds per-bridge load and failure tuning.
type BridgeConfig struct {
	// FailureResetThreshold is how long a bridge stays reported
	// non-operational after a failure, even if its flag recovers sooner.
	// 0 disables the lockout.
	FailureResetThreshold time.Duration `yaml:"failure_reset_threshold"`

	// ParticipantRampupInterval is the sliding window over which recently
	// allocated endpoints still count towards estimated load.
	ParticipantRampupInterval time.Duration `yaml:"participant_rampup_interval"`

	// AverageParticipantStress is the stress one recent endpoint is assumed
	// to add when the bridge reports stress directly. Bridges may override
	// it via the average_participant_stress stat.
	AverageParticipantStress float64 `yaml:"average_participant_stress"`

	// AverageParticipantPacketRatePps is the packet rate one recent endpoint
	// is assumed to add in packet-rate stress mode.
	AverageParticipantPacketRatePps int `yaml:"average_participant_packet_rate_pps"`

	// MaxPacketRatePps is the packet rate at which a bridge is considered
	// fully loaded. When 0 it is derived from
	// AverageParticipantPacketRatePps * DefaultMaxBridgeParticipants.
	MaxPacketRatePps int `yaml:"max_packet_rate_pps"`

	// StressThreshold is the stress at or above which a bridge counts as
	// overloaded. Hot-reloadable.
	StressThreshold float64 `yaml:"stress_threshold"`
}

// SelectionConfig selects and tunes the bridge selection strategy.
type SelectionConfig struct {
	// Strategy is one of: single | region | intra-region | split.
	Strategy string `yaml:"strategy"`

	// RegionGroups is a static partition of regions a strategy may treat as
	// equivalent for near-placement. Hot-reloadable.
	RegionGroups [][]string `yaml:"region_groups"`
}

// PollerConfig configures the optional Prometheus stats poller, used for
// deployments where bridges do not attach stats to their presence.
type PollerConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Interval time.Duration  `yaml:"interval"`
	Targets  []PollerTarget `yaml:"targets"`
}

// PollerTarget is one bridge metrics endpoint to poll.
type PollerTarget struct {
	// Address is the bridge address the scraped stats are attributed to.
	Address string `yaml:"address"`

	// Endpoint is the full URL of the bridge's Prometheus text endpoint.
	Endpoint string `yaml:"endpoint"`
}

// MaxBridgePacketRatePps returns the configured packet-rate ceiling, deriving
// it from the per-participant rate when unset.
func (b BridgeConfig) MaxBridgePacketRatePps() int {
	if b.MaxPacketRatePps > 0 {
		return b.MaxPacketRatePps
	}
	return b.AverageParticipantPacketRatePps * DefaultMaxBridgeParticipants
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Focus: FocusConfig{
			ReplyTimeout: DefaultReplyTimeout,
			DebugPort:    DefaultDebugPort,
			HealthChecks: HealthConfig{
				Interval:   DefaultHealthInterval,
				RetryDelay: DefaultHealthRetryDelay,
				Mode:       HealthModeTransport,
			},
			Bridge: BridgeConfig{
				FailureResetThreshold:           DefaultFailureReset,
				ParticipantRampupInterval:       DefaultRampupInterval,
				AverageParticipantStress:        DefaultAvgParticipantStress,
				AverageParticipantPacketRatePps: DefaultAvgParticipantPps,
				StressThreshold:                 DefaultStressThreshold,
			},
			Selection: SelectionConfig{
				Strategy: StrategyRegion,
			},
			StatsPoller: PollerConfig{
				Interval: DefaultPollInterval,
			},
		},
	}
}

// validate checks required fields and structural constraints.
// A bad strategy name or region group is a startup-time error; the runtime
// does not tolerate partial configuration.
func validate(cfg *Config) error {
	f := &cfg.Focus
	if f.BreweryURL == "" {
		return fmt.Errorf("focus.brewery_url is required")
	}
	if f.BreweryRoom == "" {
		return fmt.Errorf("focus.brewery_room is required")
	}
	if f.HealthChecks.Interval <= 0 {
		return fmt.Errorf("focus.health_checks.interval must be positive")
	}
	if f.HealthChecks.RetryDelay < 0 {
		return fmt.Errorf("focus.health_checks.retry_delay must not be negative")
	}
	switch f.HealthChecks.Mode {
	case HealthModeTransport:
	case HealthModeGRPC:
		if f.HealthChecks.GRPCPort <= 0 {
			return fmt.Errorf("focus.health_checks.grpc_port is required in grpc mode")
		}
	default:
		return fmt.Errorf("focus.health_checks.mode: unknown mode %q", f.HealthChecks.Mode)
	}
	if f.Bridge.FailureResetThreshold < 0 {
		return fmt.Errorf("focus.bridge.failure_reset_threshold must not be negative")
	}
	if f.Bridge.ParticipantRampupInterval <= 0 {
		return fmt.Errorf("focus.bridge.participant_rampup_interval must be positive")
	}
	if f.Bridge.StressThreshold <= 0 {
		return fmt.Errorf("focus.bridge.stress_threshold must be positive")
	}
	if f.Bridge.AverageParticipantPacketRatePps <= 0 {
		return fmt.Errorf("focus.bridge.average_participant_packet_rate_pps must be positive")
	}
	switch f.Selection.Strategy {
	case StrategySingle, StrategyRegion, StrategyIntraRegion, StrategySplit:
	default:
		return fmt.Errorf("focus.selection.strategy: unknown strategy %q", f.Selection.Strategy)
	}
	for i, group := range f.Selection.RegionGroups {
		if len(group) == 0 {
			return fmt.Errorf("focus.selection.region_groups[%d]: group must not be empty", i)
		}
		for j, region := range group {
			if region == "" {
				return fmt.Errorf("focus.selection.region_groups[%d][%d]: region must not be empty", i, j)
			}
		}
	}
	if f.StatsPoller.Enabled {
		if f.StatsPoller.Interval <= 0 {
			return fmt.Errorf("focus.stats_poller.interval must be positive")
		}
		for i, tgt := range f.StatsPoller.Targets {
			if tgt.Address == "" {
				return fmt.Errorf("focus.stats_poller.targets[%d]: address is required", i)
			}
			if tgt.Endpoint == "" {
				return fmt.Errorf("focus.stats_poller.targets[%d] %q: endpoint is required", i, tgt.Address)
			}
		}
	}
	return nil
}
