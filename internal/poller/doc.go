// Package poller is the fallback stats source: it scrapes each configured
// bridge's Prometheus text endpoint and republishes the recognised series
// (stress level, packet rates, graceful shutdown) as status snapshots into
// the registry. It never removes bridges; membership stays presence-driven.
package poller
