package api

// HealthResponse is the payload for GET /debug/v1/health.
type HealthResponse struct {
	State            string `json:"state"`
	BridgeCount      int    `json:"bridge_count"`
	OperationalCount int    `json:"operational_count"`
	InShutdownCount  int    `json:"in_shutdown_count"`
}

// BridgeResponse is one bridge entry in GET /debug/v1/bridges or
// GET /debug/v1/bridges/{address}.
type BridgeResponse struct {
	Address            string  `json:"address"`
	Region             string  `json:"region,omitempty"`
	RelayID            string  `json:"relay_id,omitempty"`
	Version            string  `json:"version,omitempty"`
	Stress             float64 `json:"stress"`
	Operational        bool    `json:"operational"`
	ShutdownInProgress bool    `json:"shutdown_in_progress"`
	RecentEndpoints    int     `json:"recent_endpoints"`
}

// StatsResponse is the payload for GET /debug/v1/stats.
type StatsResponse struct {
	Strategy string           `json:"strategy"`
	Counters map[string]int64 `json:"counters"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
