// Package trace provides step-trace recording for agent round-trip
// analysis. It stores pure data types and has no dependency on sim/ or
// sim/bridge/.
package trace

// Hook names the congestion-control hook that triggered a round trip.
type Hook string

const (
	// HookThresholdQuery is the loss-path hook (slow start threshold query).
	HookThresholdQuery Hook = "threshold_query"
	// HookWindowIncrease is the growth-path hook (window increase).
	HookWindowIncrease Hook = "window_increase"
)

// StepRecord captures a single agent round trip: the triggering hook,
// the reward published with the observation, and the decision applied.
type StepRecord struct {
	ConnID   uint64  `json:"conn_id"`
	Clock    int64   `json:"clock"`
	Hook     Hook    `json:"hook"`
	Reward   float64 `json:"reward"`
	SsThresh uint32  `json:"ss_thresh"` // decision
	Cwnd     uint32  `json:"cwnd"`      // decision
}
