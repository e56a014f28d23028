package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "focus.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal config — only the required brewery fields.
	p := writeConfig(t, `focus:
  brewery_url: "ws://localhost:5280/ws"
  brewery_room: "brewery@conference.example"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := cfg.Focus
	if f.HealthChecks.Interval != DefaultHealthInterval {
		t.Errorf("health_checks.interval: got %v, want %v", f.HealthChecks.Interval, DefaultHealthInterval)
	}
	if f.HealthChecks.Mode != HealthModeTransport {
		t.Errorf("health_checks.mode: got %q, want %q", f.HealthChecks.Mode, HealthModeTransport)
	}
	if f.Bridge.FailureResetThreshold != DefaultFailureReset {
		t.Errorf("bridge.failure_reset_threshold: got %v, want %v", f.Bridge.FailureResetThreshold, DefaultFailureReset)
	}
	if f.Bridge.StressThreshold != DefaultStressThreshold {
		t.Errorf("bridge.stress_threshold: got %v, want %v", f.Bridge.StressThreshold, DefaultStressThreshold)
	}
	if f.Selection.Strategy != StrategyRegion {
		t.Errorf("selection.strategy: got %q, want %q", f.Selection.Strategy, StrategyRegion)
	}
	if f.ReplyTimeout != DefaultReplyTimeout {
		t.Errorf("reply_timeout: got %v, want %v", f.ReplyTimeout, DefaultReplyTimeout)
	}
	if f.DebugPort != DefaultDebugPort {
		t.Errorf("debug_port: got %d, want %d", f.DebugPort, DefaultDebugPort)
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `focus:
  brewery_url: "ws://brewery.example:5280/ws"
  brewery_room: "brewery@conference.example"
  reply_timeout: 5s
  octo_enabled: true
  debug_port: 9017
  health_checks:
    interval: 30s
    retry_delay: 2s
    mode: grpc
    grpc_port: 6061
  bridge:
    failure_reset_threshold: 2m
    participant_rampup_interval: 40s
    average_participant_stress: 0.02
    average_participant_packet_rate_pps: 1000
    max_packet_rate_pps: 80000
    stress_threshold: 0.9
  selection:
    strategy: split
    region_groups:
      - ["us-east", "us-west"]
      - ["eu-west", "eu-central"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := cfg.Focus
	if !f.OctoEnabled {
		t.Error("octo_enabled: got false, want true")
	}
	if f.ReplyTimeout != 5*time.Second {
		t.Errorf("reply_timeout: got %v, want 5s", f.ReplyTimeout)
	}
	if f.HealthChecks.Mode != HealthModeGRPC || f.HealthChecks.GRPCPort != 6061 {
		t.Errorf("health_checks: got %q/%d, want grpc/6061", f.HealthChecks.Mode, f.HealthChecks.GRPCPort)
	}
	if f.Bridge.FailureResetThreshold != 2*time.Minute {
		t.Errorf("failure_reset_threshold: got %v, want 2m", f.Bridge.FailureResetThreshold)
	}
	if f.Selection.Strategy != StrategySplit {
		t.Errorf("selection.strategy: got %q, want split", f.Selection.Strategy)
	}
	if len(f.Selection.RegionGroups) != 2 || f.Selection.RegionGroups[0][1] != "us-west" {
		t.Errorf("region_groups: got %v", f.Selection.RegionGroups)
	}
}

func TestMaxBridgePacketRatePps(t *testing.T) {
	explicit := BridgeConfig{MaxPacketRatePps: 12345, AverageParticipantPacketRatePps: 500}
	if got := explicit.MaxBridgePacketRatePps(); got != 12345 {
		t.Errorf("explicit: got %d, want 12345", got)
	}
	derived := BridgeConfig{AverageParticipantPacketRatePps: 500}
	if got := derived.MaxBridgePacketRatePps(); got != 500*DefaultMaxBridgeParticipants {
		t.Errorf("derived: got %d, want %d", got, 500*DefaultMaxBridgeParticipants)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing brewery_url",
			yaml:    "focus:\n  brewery_room: r\n",
			wantErr: "brewery_url",
		},
		{
			name:    "missing brewery_room",
			yaml:    "focus:\n  brewery_url: ws://x\n",
			wantErr: "brewery_room",
		},
		{
			name: "unknown strategy",
			yaml: `focus:
  brewery_url: ws://x
  brewery_room: r
  selection:
    strategy: roulette
`,
			wantErr: "unknown strategy",
		},
		{
			name: "empty region group",
			yaml: `focus:
  brewery_url: ws://x
  brewery_room: r
  selection:
    strategy: region
    region_groups:
      - []
`,
			wantErr: "region_groups",
		},
		{
			name: "grpc mode without port",
			yaml: `focus:
  brewery_url: ws://x
  brewery_room: r
  health_checks:
    mode: grpc
`,
			wantErr: "grpc_port",
		},
		{
			name: "unknown health mode",
			yaml: `focus:
  brewery_url: ws://x
  brewery_room: r
  health_checks:
    mode: icmp
`,
			wantErr: "unknown mode",
		},
		{
			name: "poller target without endpoint",
			yaml: `focus:
  brewery_url: ws://x
  brewery_room: r
  stats_poller:
    enabled: true
    targets:
      - address: jvb-1
`,
			wantErr: "endpoint",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/focus.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
