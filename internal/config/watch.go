package config

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path and calls onChange with an updated Config each time a
// valid reload lands. Only the hot-reloadable settings — the bridge stress
// threshold and the selection region groups — are taken from the reloaded
// file; a change to anything else is logged as requiring a restart and
// ignored. A reload that fails to parse or validate keeps the previous
// config and does not call onChange. Watch runs until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	active, err := Load(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so treat create like write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			loaded, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			if ignored := restartOnlySettings(active, loaded); len(ignored) > 0 {
				slog.Warn("config: changed settings require a restart, ignoring",
					"path", path, "settings", ignored)
			}

			next := *active
			next.Focus.Bridge.StressThreshold = loaded.Focus.Bridge.StressThreshold
			next.Focus.Selection.RegionGroups = loaded.Focus.Selection.RegionGroups
			active = &next

			slog.Info("config: reloaded",
				"path", path,
				"stress_threshold", active.Focus.Bridge.StressThreshold,
				"region_groups", len(active.Focus.Selection.RegionGroups))
			onChange(active)

			// An atomic save may have replaced the inode; re-add the path.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// restartOnlySettings lists the settings that differ between prev and next
// but cannot be applied at runtime.
func restartOnlySettings(prev, next *Config) []string {
	var changed []string
	p, n := prev.Focus, next.Focus

	if p.BreweryURL != n.BreweryURL {
		changed = append(changed, "brewery_url")
	}
	if p.BreweryRoom != n.BreweryRoom {
		changed = append(changed, "brewery_room")
	}
	if p.ReplyTimeout != n.ReplyTimeout {
		changed = append(changed, "reply_timeout")
	}
	if p.OctoEnabled != n.OctoEnabled {
		changed = append(changed, "octo_enabled")
	}
	if p.DebugPort != n.DebugPort {
		changed = append(changed, "debug_port")
	}
	if p.HealthChecks != n.HealthChecks {
		changed = append(changed, "health_checks")
	}
	if p.Selection.Strategy != n.Selection.Strategy {
		changed = append(changed, "selection.strategy")
	}

	pb, nb := p.Bridge, n.Bridge
	pb.StressThreshold, nb.StressThreshold = 0, 0
	if pb != nb {
		changed = append(changed, "bridge")
	}
	if !reflect.DeepEqual(p.StatsPoller, n.StatsPoller) {
		changed = append(changed, "stats_poller")
	}
	return changed
}
