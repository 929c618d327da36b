// Package agent defines the boundary between the congestion-control
// bridge and the external decision process: the fixed-order
// observation vector, the decision record, and the synchronous channel
// that carries one observation+reward → decision round trip per
// congestion event.
package agent

// ObservationLen is the number of fields in an Observation. Agents are
// trained against this layout; changing it is a version bump.
const ObservationLen = 15

// Observation is the fixed-order numeric encoding of connection state
// sent to the agent. Field order is an external contract:
//
//	[0]  connection id          [8]  bytes in flight
//	[1]  event-mode tag         [9]  last RTT (microseconds)
//	[2]  simulated time (ticks) [10] min RTT (microseconds, 0 = unset)
//	[3]  node id                [11] called function
//	[4]  slow start threshold   [12] congestion state
//	[5]  congestion window      [13] last congestion-window event
//	[6]  segment size           [14] ECN state
//	[7]  segments acked
//
// All values are non-negative and bounded by the declared observation
// range; out-of-range quantities are clamped by the encoder, never
// wrapped.
type Observation [ObservationLen]uint64

// Decision is the agent's response to one observation: the new slow
// start threshold and congestion window to apply. A decision equal to
// the observed values means "no change"; the channel does not
// distinguish that from "no opinion".
type Decision struct {
	SsThresh uint32
	Cwnd     uint32
}

// Channel is the synchronous request/response primitive between a
// bridge instance and its agent. Step blocks the calling (event
// processing) goroutine until the decision arrives: the simulation
// must not advance while a decision is outstanding. Hooks for a single
// connection are never invoked concurrently, so at most one request is
// outstanding per channel.
type Channel interface {
	Step(obs Observation, reward float64) (Decision, error)
}

// FuncChannel adapts an in-process policy function into a Channel.
// The call is trivially synchronous and never fails.
type FuncChannel func(obs Observation, reward float64) Decision

// Step invokes the policy function.
func (f FuncChannel) Step(obs Observation, reward float64) (Decision, error) {
	return f(obs, reward), nil
}

// StepRequest is one pending observation on a SyncChannel.
type StepRequest struct {
	Obs    Observation
	Reward float64
}

// SyncChannel is a single-slot, rendezvous-style channel for agents
// running on another goroutine (tests, drivers). Both channels are
// unbuffered, which makes the at-most-one-outstanding-request
// invariant structural: Step cannot return, and therefore no further
// observation can be published, until the agent has answered.
type SyncChannel struct {
	req  chan StepRequest
	resp chan Decision
}

// NewSyncChannel creates a SyncChannel ready for use.
func NewSyncChannel() *SyncChannel {
	return &SyncChannel{
		req:  make(chan StepRequest),
		resp: make(chan Decision),
	}
}

// Step publishes the observation and blocks until the agent answers.
func (c *SyncChannel) Step(obs Observation, reward float64) (Decision, error) {
	c.req <- StepRequest{Obs: obs, Reward: reward}
	return <-c.resp, nil
}

// Recv blocks until the bridge publishes the next observation.
// Agent-side API.
func (c *SyncChannel) Recv() StepRequest { return <-c.req }

// Send delivers the decision for the observation returned by the last
// Recv. Agent-side API.
func (c *SyncChannel) Send(d Decision) { c.resp <- d }
