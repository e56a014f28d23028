// Package selector decides which bridge hosts a joining conference
// participant.
//
// A Strategy works on an already-filtered, stress-sorted candidate list, so
// every strategy is a pure function of its inputs and cheap to test. The
// Selector façade owns the registry snapshotting, the operational filter and
// the graceful-shutdown fallback, and serializes picks so concurrent joins
// see each other's load bookings.
package selector
