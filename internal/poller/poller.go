package poller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/config"
	"github.com/confocus/confocus/internal/registry"
)

const pollTimeout = 10 * time.Second

// Bridge metric names recognised in the Prometheus exposition.
const (
	metricStressLevel        = "jvb_stress_level"
	metricPacketRateDownload = "jvb_packet_rate_download"
	metricPacketRateUpload   = "jvb_packet_rate_upload"
	metricGracefulShutdown   = "jvb_graceful_shutdown"
)

// Poller periodically scrapes each configured bridge's Prometheus text
// endpoint and feeds the recognised series into the registry as a status
// snapshot, for deployments where presence carries no stats.
type Poller struct {
	cfg      config.PollerConfig
	registry *registry.Registry
	client   *http.Client
}

// New creates a Poller feeding reg from the targets in cfg.
func New(cfg config.PollerConfig, reg *registry.Registry) *Poller {
	return &Poller{
		cfg:      cfg,
		registry: reg,
		client:   &http.Client{Timeout: pollTimeout},
	}
}

// Run polls every target once per interval. It blocks until ctx is
// cancelled. A failed poll is logged and retried on the next tick; it never
// removes the bridge — only presence decides membership when both sources
// are active.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, tgt := range p.cfg.Targets {
				p.poll(ctx, tgt)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context, tgt config.PollerTarget) {
	mfs, err := p.fetchMetrics(ctx, tgt.Endpoint)
	if err != nil {
		slog.Warn("poller: scrape failed", "bridge", tgt.Address, "err", err)
		return
	}

	stats := statsFromFamilies(mfs)
	p.registry.AddOrUpdate(bridge.Address(tgt.Address), stats)
	slog.Debug("poller: stats ingested", "bridge", tgt.Address, "stats", len(stats))
}

// statsFromFamilies converts recognised metric families into the same
// name→string snapshot the presence channel delivers.
func statsFromFamilies(mfs map[string]*dto.MetricFamily) bridge.Stats {
	stats := make(bridge.Stats)

	if v, ok := firstValue(mfs[metricStressLevel]); ok {
		stats[bridge.StatStressLevel] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v, ok := firstValue(mfs[metricPacketRateDownload]); ok {
		stats[bridge.StatPacketRateDownload] = strconv.Itoa(int(v))
	}
	if v, ok := firstValue(mfs[metricPacketRateUpload]); ok {
		stats[bridge.StatPacketRateUpload] = strconv.Itoa(int(v))
	}
	if v, ok := firstValue(mfs[metricGracefulShutdown]); ok {
		stats[bridge.StatShutdownInProgress] = strconv.FormatBool(v != 0)
	}
	return stats
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func (p *Poller) fetchMetrics(ctx context.Context, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// firstValue returns the first gauge, counter, or untyped value in mf.
// Returns ok=false if mf is nil or carries no samples.
func firstValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		}
	}
	return 0, false
}
