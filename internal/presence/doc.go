// Package presence connects the brewery transport to the bridge registry.
// The brewery room's roster is the registry's source of truth: every status
// presence creates or refreshes a record, every offline presence removes one.
package presence
