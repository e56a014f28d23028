// Package transport carries the focus's two interactions with the brewery
// presence service over a single WebSocket session: inbound presence events
// (bridge status snapshots and offline notices) and outbound request/reply
// health probes with correlation ids. The session reconnects with capped
// exponential backoff; pending requests fail fast when it drops.
package transport
