// Package health runs one periodic probe task per registered bridge and
// classifies each probe as passed, failed, or timed out. A timed-out first
// attempt gets a single delayed second chance within the same task run.
// Outcomes flow back to the registry, which maps them onto operational-state
// transitions. Two probe backends exist: the brewery transport's
// request/reply channel and the standard gRPC health service.
package health
