// Package bridge implements the per-connection bridge between the
// transport layer's congestion-control hooks and an external decision
// agent. On every congestion-relevant event the bridge snapshots
// connection state into a fixed-order observation, computes a scalar
// reward, performs one blocking round trip on the agent channel, and
// applies the returned decision before the hook returns.
package bridge

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tcprl-sim/tcprl-sim/sim"
	"github.com/tcprl-sim/tcprl-sim/sim/agent"
	"github.com/tcprl-sim/tcprl-sim/sim/trace"
)

// CalledFunc identifies which hook produced the last observation, so
// the agent can tell loss-path queries from growth-path queries apart.
// The numeric values are part of the observation contract.
type CalledFunc uint8

const (
	CalledThresholdQuery CalledFunc = iota // loss path
	CalledWindowIncrease                   // growth path
)

// Clock provides the current simulated time in ticks.
type Clock interface {
	Now() int64
}

// Config wires a bridge's collaborators.
type Config struct {
	Topology *sim.Topology
	Clock    Clock
	Channel  agent.Channel
	Policy   RewardPolicy     // nil = NewEcnAwarePolicy()
	Trace    *trace.StepTrace // optional round-trip recording
}

// Bridge is one per-connection instance of the hook contract. It is
// UNBOUND at creation; the first hook invocation runs the one-shot
// connection binder and the instance stays BOUND for its lifetime.
//
// All methods run on the event-processing goroutine. Hooks for a
// single connection are never invoked concurrently, so at most one
// agent request is outstanding at any time.
type Bridge struct {
	connID  uint64
	topo    *sim.Topology
	clock   Clock
	channel agent.Channel
	policy  RewardPolicy
	rec     *trace.StepTrace

	bound  bool
	sock   *sim.Socket
	nodeID uint32

	// snapshot of the last triggering event
	tcb           *sim.ConnectionState
	calledFunc    CalledFunc
	segmentsAcked uint32
	bytesInFlight uint32
	lastRtt       time.Duration
	lastCaEvent   sim.CaEvent

	// per-connection counters; monotonically non-decreasing
	ecnMarkCount         uint64
	cumulativeBytesAcked uint64
	txPackets            uint64
	rxPackets            uint64

	ecnCongestionPending bool
	networkClear         bool
	lastEcnTime          int64
	lastAckTime          int64

	// last decision; defaults to "no change" until a real one arrives
	newSsThresh uint32
	newCwnd     uint32
}

// New creates an unbound bridge with a fresh process-unique connection
// id.
func New(cfg Config) *Bridge {
	policy := cfg.Policy
	if policy == nil {
		policy = NewEcnAwarePolicy()
	}
	return &Bridge{
		connID:      NextConnID(),
		topo:        cfg.Topology,
		clock:       cfg.Clock,
		channel:     cfg.Channel,
		policy:      policy,
		rec:         cfg.Trace,
		calledFunc:  CalledWindowIncrease,
		lastCaEvent: sim.CaEventTxStart,
	}
}

// QueryThreshold implements the loss-path hook: classify the cause,
// compute the reward, run the agent round trip, and return the
// decided slow start threshold. With no connection state it returns
// the conservative half of bytes-in-flight and performs no round trip.
func (b *Bridge) QueryThreshold(state *sim.ConnectionState, bytesInFlight uint32) uint32 {
	if state == nil {
		logrus.Warnf("bridge %d: QueryThreshold with no connection state", b.connID)
		return bytesInFlight / 2
	}
	b.ensureBound()

	b.calledFunc = CalledThresholdQuery
	b.tcb = state
	b.bytesInFlight = bytesInFlight
	b.segmentsAcked = 0
	b.lastRtt = 0

	// Default to the unchanged values in case no decision arrives.
	b.newSsThresh = state.SsThresh
	b.newCwnd = state.Cwnd

	b.classifyThresholdQuery(state)

	var reward float64
	if b.ecnCongestionPending {
		reward = b.policy.ThresholdReward(true)
		// the pending signal is consumed by exactly this reward
		b.ecnCongestionPending = false
	} else {
		reward = b.policy.ThresholdReward(false)
	}

	b.roundTrip(reward, trace.HookThresholdQuery)
	return b.newSsThresh
}

// IncreaseWindow implements the growth-path hook: update counters,
// compute the growth reward, run the round trip, and apply the decided
// congestion window. No-op with no connection state.
func (b *Bridge) IncreaseWindow(state *sim.ConnectionState, segmentsAcked uint32) {
	if state == nil {
		logrus.Warnf("bridge %d: IncreaseWindow with no connection state", b.connID)
		return
	}
	b.ensureBound()

	b.calledFunc = CalledWindowIncrease
	b.tcb = state
	b.segmentsAcked = segmentsAcked
	b.bytesInFlight = state.BytesInFlight
	b.cumulativeBytesAcked += uint64(segmentsAcked) * uint64(state.SegmentSize)

	b.newSsThresh = state.SsThresh
	b.newCwnd = state.Cwnd

	reward := b.policy.GrowthReward(segmentsAcked, b.lastRtt, state.MinRtt)
	b.lastAckTime = b.clock.Now()

	b.roundTrip(reward, trace.HookWindowIncrease)
	state.Cwnd = b.newCwnd
}

// RecordAcknowledged stores the round-trip sample and acknowledged
// count for the next observation. Bookkeeping only: no round trip.
func (b *Bridge) RecordAcknowledged(state *sim.ConnectionState, segmentsAcked uint32, rtt time.Duration) {
	if state == nil {
		logrus.Warnf("bridge %d: RecordAcknowledged with no connection state", b.connID)
		return
	}
	b.ensureBound()

	b.tcb = state
	b.segmentsAcked = segmentsAcked
	b.lastRtt = rtt
}

// CongestionStateChanged is informational; no observation or reward
// cycle.
func (b *Bridge) CongestionStateChanged(state *sim.ConnectionState, newState sim.CongState) {
	if state == nil {
		logrus.Warnf("bridge %d: CongestionStateChanged with no connection state", b.connID)
		return
	}
	b.ensureBound()

	b.tcb = state
	if newState == sim.CongCwr {
		logrus.Infof("bridge %d: entering CWR (ECN response) at %d ticks", b.connID, b.clock.Now())
	}
}

// CongestionEvent records the event and runs the classifier to update
// ECN counters and flags; no round trip.
func (b *Bridge) CongestionEvent(state *sim.ConnectionState, event sim.CaEvent) {
	if state == nil {
		logrus.Warnf("bridge %d: CongestionEvent with no connection state", b.connID)
		return
	}
	b.ensureBound()

	b.tcb = state
	b.lastCaEvent = event
	b.classifyCwndEvent(event)
}

// roundTrip publishes the current observation with its reward, blocks
// until the decision arrives, and stores it. A channel failure keeps
// the "no decision" default (values unchanged), the same degrade path
// as an agent that never answered.
func (b *Bridge) roundTrip(reward float64, hook trace.Hook) {
	obs := b.encodeObservation()
	dec, err := b.channel.Step(obs, reward)
	if err != nil {
		logrus.Warnf("bridge %d: agent round trip failed, keeping current values: %v", b.connID, err)
	} else {
		b.newSsThresh = dec.SsThresh
		b.newCwnd = dec.Cwnd
	}

	if b.rec != nil {
		b.rec.Record(trace.StepRecord{
			ConnID:   b.connID,
			Clock:    b.clock.Now(),
			Hook:     hook,
			Reward:   reward,
			SsThresh: b.newSsThresh,
			Cwnd:     b.newCwnd,
		})
	}
}

func (b *Bridge) onTxPacket(*sim.Packet, *sim.Socket) { b.txPackets++ }
func (b *Bridge) onRxPacket(*sim.Packet, *sim.Socket) { b.rxPackets++ }

// ConnID returns the process-unique connection identifier.
func (b *Bridge) ConnID() uint64 { return b.connID }

// NodeID returns the owning node id, valid once bound.
func (b *Bridge) NodeID() uint32 { return b.nodeID }

// Bound reports whether the one-shot binder has run.
func (b *Bridge) Bound() bool { return b.bound }

// BoundSocket returns the socket the binder selected, nil while
// unbound.
func (b *Bridge) BoundSocket() *sim.Socket { return b.sock }

// EcnMarkCount returns the monotonically non-decreasing count of ECN
// congestion-experienced marks seen.
func (b *Bridge) EcnMarkCount() uint64 { return b.ecnMarkCount }

// EcnCongestionPending reports whether an ECN mark is awaiting reward
// consumption.
func (b *Bridge) EcnCongestionPending() bool { return b.ecnCongestionPending }

// NetworkClear reports whether the most recent explicit ECN signal was
// "no congestion experienced".
func (b *Bridge) NetworkClear() bool { return b.networkClear }

// CumulativeBytesAcked returns the monotonically non-decreasing byte
// counter maintained on the growth path.
func (b *Bridge) CumulativeBytesAcked() uint64 { return b.cumulativeBytesAcked }

// PacketCounts returns the diagnostic tx/rx packet counters gathered
// through the socket trace callbacks.
func (b *Bridge) PacketCounts() (tx, rx uint64) { return b.txPackets, b.rxPackets }
