package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/confocus/confocus/internal/bridge"
	"github.com/confocus/confocus/internal/registry"
	"github.com/confocus/confocus/internal/selector"
)

// Handler is the HTTP handler for all /debug/v1/* endpoints.
// It reads bridge state from the registry and returns JSON responses.
type Handler struct {
	registry *registry.Registry
	selector *selector.Selector
	mux      *http.ServeMux
}

// New creates a Handler wired to the given registry and selector and
// registers all routes.
func New(reg *registry.Registry, sel *selector.Selector) http.Handler {
	h := &Handler{registry: reg, selector: sel, mux: http.NewServeMux()}

	h.mux.HandleFunc("/debug/v1/health", h.health)
	h.mux.HandleFunc("/debug/v1/bridges", h.listBridges)
	h.mux.HandleFunc("/debug/v1/bridges/", h.getBridge) // subtree — extracts {address}
	h.mux.HandleFunc("/debug/v1/stats", h.stats)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /debug/v1/health — bridge pool counts and an overall
// state: healthy while at least one bridge is operational.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		BridgeCount:      h.registry.CountTotal(),
		OperationalCount: h.registry.CountOperational(),
		InShutdownCount:  h.registry.CountInShutdown(),
	}
	switch {
	case resp.BridgeCount == 0:
		resp.State = "empty"
	case resp.OperationalCount == 0:
		resp.State = "degraded"
	default:
		resp.State = "healthy"
	}
	jsonResp(w, http.StatusOK, resp)
}

// listBridges returns GET /debug/v1/bridges — all registered bridges in
// selection priority order.
func (h *Handler) listBridges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records := h.registry.SnapshotSorted()
	out := make([]BridgeResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toBridgeResponse(rec.Snapshot()))
	}
	jsonResp(w, http.StatusOK, out)
}

// getBridge returns GET /debug/v1/bridges/{address} — a single bridge.
func (h *Handler) getBridge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	addr := strings.TrimPrefix(r.URL.Path, "/debug/v1/bridges/")
	if addr == "" {
		// Redirect bare /debug/v1/bridges/ to list handler.
		h.listBridges(w, r)
		return
	}

	rec := h.registry.Get(bridge.Address(addr))
	if rec == nil {
		jsonErr(w, http.StatusNotFound, "bridge not found")
		return
	}
	jsonResp(w, http.StatusOK, toBridgeResponse(rec.Snapshot()))
}

// stats returns GET /debug/v1/stats — selection rule counters.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, StatsResponse{
		Strategy: h.selector.StrategyName(),
		Counters: h.selector.Stats(),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toBridgeResponse maps a bridge.Info to its JSON representation.
func toBridgeResponse(info bridge.Info) BridgeResponse {
	return BridgeResponse{
		Address:            string(info.Address),
		Region:             info.Region,
		RelayID:            info.RelayID,
		Version:            info.Version,
		Stress:             info.Stress,
		Operational:        info.Operational,
		ShutdownInProgress: info.ShutdownInProgress,
		RecentEndpoints:    info.RecentEndpoints,
	}
}
