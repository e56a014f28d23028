// Package api implements the diagnostics HTTP API of the focus service.
//
// New(registry, selector) returns an http.Handler that serves:
//
//	GET /debug/v1/health             — bridge pool counts and overall state
//	GET /debug/v1/bridges            — all bridges in selection priority order
//	GET /debug/v1/bridges/{address}  — single bridge; 404 if unknown
//	GET /debug/v1/stats              — strategy name and selection rule counters
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
