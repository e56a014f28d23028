package bridge

import (
	"strconv"
	"strings"
)

// Recognised stat names in a bridge status snapshot. Values are free-form
// strings; the typed accessors below tolerate absence and parse failure.
const (
	StatPacketRateDownload   = "packet_rate_download"
	StatPacketRateUpload     = "packet_rate_upload"
	StatStressLevel          = "stress_level"
	StatAvgParticipantStress = "average_participant_stress"
	StatRegion               = "region"
	StatRelayID              = "relay_id"
	StatVersion              = "version"
	StatOctoVersion          = "octo_version"
	StatShutdownInProgress   = "shutdown_in_progress"
)

// Stats is one status snapshot published by a bridge: an unordered collection
// of name→string-value pairs.
type Stats map[string]string

// String returns the raw value for name and whether it was present.
func (s Stats) String(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Float parses the value for name as a float64.
// Returns ok=false when the stat is absent or does not parse.
func (s Stats) Float(name string) (float64, bool) {
	raw, ok := s[name]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses the value for name as an int.
// Returns ok=false when the stat is absent or does not parse.
func (s Stats) Int(name string) (int, bool) {
	raw, ok := s[name]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool parses the value for name as a boolean ("true" / "false").
// Returns ok=false when the stat is absent or does not parse.
func (s Stats) Bool(name string) (bool, bool) {
	raw, ok := s[name]
	if !ok {
		return false, false
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return v, true
}
