// Package bridge holds the per-bridge state tracked by the focus: the latest
// status snapshot published through the brewery, the derived stress estimate
// with its unreported-activity correction, the operational flag with a
// failure-reset lockout, and the tiered comparator the registry sorts by.
package bridge
