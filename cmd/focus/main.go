package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confocus/confocus/internal/api"
	"github.com/confocus/confocus/internal/config"
	"github.com/confocus/confocus/internal/health"
	"github.com/confocus/confocus/internal/poller"
	"github.com/confocus/confocus/internal/presence"
	"github.com/confocus/confocus/internal/registry"
	"github.com/confocus/confocus/internal/selector"
	"github.com/confocus/confocus/internal/transport"
)

func main() {
	configPath := flag.String("config", "focus.yaml", "path to config file")
	logLevel := flag.String("log-level", "info", "log level: debug | info | warn | error")
	flag.Parse()

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("focus starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	f := cfg.Focus
	slog.Info("config loaded",
		"brewery_url", f.BreweryURL,
		"brewery_room", f.BreweryRoom,
		"strategy", f.Selection.Strategy,
		"health_mode", f.HealthChecks.Mode,
		"octo_enabled", f.OctoEnabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Bridge registry — the shared pool all other components read and write.
	reg := registry.New(f.Bridge)

	// Brewery presence session. The consumer turns presence into registry
	// membership; the same session carries health request/reply traffic.
	client := transport.NewClient(f.BreweryURL, f.BreweryRoom, f.ReplyTimeout, presence.New(reg))
	go client.Run(ctx)

	// Health-check scheduler, fed by registry lifecycle events.
	var prober health.Prober
	switch f.HealthChecks.Mode {
	case config.HealthModeGRPC:
		grpcProber := health.NewGRPCProber(f.HealthChecks.GRPCPort, f.ReplyTimeout)
		defer grpcProber.Close()
		prober = grpcProber
	default:
		prober = health.NewTransportProber(client)
	}
	sched := health.NewScheduler(f.HealthChecks, prober, reg)
	reg.Subscribe(sched)

	// Selection strategy and façade.
	groups := selector.NewRegionGroups(f.Selection.RegionGroups)
	strategy, err := selector.NewStrategy(f.Selection, groups)
	if err != nil {
		slog.Error("failed to build selection strategy", "err", err)
		os.Exit(1)
	}
	sel := selector.New(reg, strategy, f.OctoEnabled, logger)

	// Optional Prometheus stats poller for bridges that do not attach stats
	// to their presence.
	if f.StatsPoller.Enabled {
		go poller.New(f.StatsPoller, reg).Run(ctx)
	}

	// Watch config file for hot-reload of bridge tuning and region groups.
	// Strategy and transport changes require a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			reg.ApplyConfig(updated.Focus.Bridge)
			groups.Update(updated.Focus.Selection.RegionGroups)
			slog.Info("config hot-reloaded",
				"stress_threshold", updated.Focus.Bridge.StressThreshold,
				"region_groups", len(updated.Focus.Selection.RegionGroups),
			)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Diagnostics HTTP API on localhost.
	var httpSrv *http.Server
	if f.DebugPort > 0 {
		httpSrv = &http.Server{
			Addr:    fmt.Sprintf("localhost:%d", f.DebugPort),
			Handler: api.New(reg, sel),
		}
		go func() {
			slog.Info("diagnostics API listening", "port", f.DebugPort)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("diagnostics API stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("focus shutting down")
	shutdown(reg, sched, httpSrv)
}

// parseLogLevel maps the -log-level flag value to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q (want debug, info, warn, or error)", s)
	}
	return level, nil
}

// shutdown stops the background components in dependency order.
func shutdown(reg *registry.Registry, sched *health.Scheduler, httpSrv *http.Server) {
	reg.Unsubscribe(sched)
	sched.Shutdown()
	reg.Close()
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	}
}
