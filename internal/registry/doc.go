// Package registry keeps the focus's view of all known bridges: a
// thread-safe mapping from bridge address to record, fed by brewery presence
// and by health-check outcomes. Lifecycle events (added, removed, failed
// health check) are delivered to subscribers asynchronously on a single
// FIFO worker so listener code never re-enters the registry lock.
package registry
