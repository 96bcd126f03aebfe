package app

import (
	"github.com/relabs-tech/jump_tracker/internal/gps"
	"github.com/relabs-tech/jump_tracker/internal/jump"
	"github.com/relabs-tech/jump_tracker/internal/metrics"
)

// JumpReport is the payload published per detected jump.
type JumpReport struct {
	Event   jump.Event   `json:"event"`
	Metrics metrics.Jump `json:"metrics"`
}

// SessionReport is the payload published when a capture ends. Location
// is the last GPS fix seen before finalize, when the GPS producer runs.
type SessionReport struct {
	Summary  metrics.Summary `json:"summary"`
	Rejected int             `json:"rejected_samples"`
	Location *gps.Fix        `json:"location,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ControlMessage drives the analyzer's capture lifecycle over MQTT.
type ControlMessage struct {
	Action string `json:"action"` // "start" or "stop"
}
