package sim

import (
	"testing"
	"time"
)

// renoOps is a self-contained Reno-style congestion-control module used
// to drive flows in tests while counting hook invocations.
type renoOps struct {
	thresholdCalls int
	increaseCalls  int
	ackedSegments  uint32
	states         []CongState
	events         []CaEvent
}

func (r *renoOps) QueryThreshold(state *ConnectionState, bytesInFlight uint32) uint32 {
	r.thresholdCalls++
	half := bytesInFlight / 2
	if floor := 2 * state.SegmentSize; half < floor {
		half = floor
	}
	return half
}

func (r *renoOps) IncreaseWindow(state *ConnectionState, segmentsAcked uint32) {
	r.increaseCalls++
	if state.Cwnd < state.SsThresh {
		state.Cwnd += segmentsAcked * state.SegmentSize
		return
	}
	state.Cwnd += state.SegmentSize * state.SegmentSize / state.Cwnd
}

func (r *renoOps) RecordAcknowledged(state *ConnectionState, segmentsAcked uint32, rtt time.Duration) {
	r.ackedSegments += segmentsAcked
}

func (r *renoOps) CongestionStateChanged(state *ConnectionState, newState CongState) {
	r.states = append(r.states, newState)
}

func (r *renoOps) CongestionEvent(state *ConnectionState, event CaEvent) {
	r.events = append(r.events, event)
}

func (r *renoOps) sawEvent(want CaEvent) bool {
	for _, e := range r.events {
		if e == want {
			return true
		}
	}
	return false
}

func (r *renoOps) sawState(want CongState) bool {
	for _, s := range r.states {
		if s == want {
			return true
		}
	}
	return false
}

// startFlow builds a one-flow dumbbell and schedules its start at tick 0.
func startFlow(s *Simulator, ops CongestionOps, link *Link, transferBytes uint64, ecn bool) *Flow {
	s.Topology.AddNode() // receiver
	sender := s.Topology.AddNode()
	sock := sender.NewSocket(ops, ecn)
	f := NewFlow(FlowConfig{ID: "flow-0", TransferBytes: transferBytes}, sock, link)
	s.AddFlow(f, 0)
	return f
}

func TestFlow_CleanTransferCompletes(t *testing.T) {
	// GIVEN an uncongested bottleneck and a 20-segment transfer
	s := NewSimulator(10_000_000)
	ops := &renoOps{}
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 1000})
	f := startFlow(s, ops, link, 20*DefaultSegmentSize, false)

	// WHEN the simulation runs
	s.Run()

	// THEN the transfer completes with every segment acknowledged
	done, at := f.Done()
	if !done {
		t.Fatal("clean transfer did not complete")
	}
	if at <= 0 || at > s.Horizon {
		t.Errorf("completion tick out of range: %d", at)
	}
	if got := f.BytesAcked(); got != 20*DefaultSegmentSize {
		t.Errorf("bytes acked: got %d, want %d", got, 20*DefaultSegmentSize)
	}
	if ops.ackedSegments != 20 {
		t.Errorf("acked segments seen by hooks: got %d, want 20", ops.ackedSegments)
	}
	// AND the loss path never fired
	if ops.thresholdCalls != 0 {
		t.Errorf("threshold queries on a clean path: got %d, want 0", ops.thresholdCalls)
	}
	if ops.increaseCalls == 0 {
		t.Error("growth hook never fired")
	}
	if !ops.sawEvent(CaEventTxStart) {
		t.Error("tx-start event never delivered")
	}
}

func TestFlow_RttSamplesReachConnectionState(t *testing.T) {
	// GIVEN a 1 ms one-way delay bottleneck
	s := NewSimulator(10_000_000)
	ops := &renoOps{}
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 1000})
	f := startFlow(s, ops, link, 5*DefaultSegmentSize, false)

	// WHEN the simulation runs
	s.Run()

	// THEN the sentinel was replaced by a real minimum sample
	tcb := f.Sender.State
	if tcb.MinRtt == MinRttUnset {
		t.Fatal("MinRtt sentinel survived a full transfer")
	}
	// at least two propagation delays plus one serialization
	if tcb.MinRtt < 2*time.Millisecond {
		t.Errorf("MinRtt below the physical floor: %v", tcb.MinRtt)
	}
	if tcb.LastRtt < tcb.MinRtt {
		t.Errorf("LastRtt %v below MinRtt %v", tcb.LastRtt, tcb.MinRtt)
	}
}

func TestFlow_QueueOverflowTriggersLossPath(t *testing.T) {
	// GIVEN a bottleneck queue shorter than the initial window
	s := NewSimulator(30_000_000)
	ops := &renoOps{}
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 5})
	f := startFlow(s, ops, link, 40*DefaultSegmentSize, false)

	// WHEN the simulation runs
	s.Run()

	// THEN dropped segments forced at least one threshold reduction
	if ops.thresholdCalls == 0 {
		t.Fatal("queue overflow never reached the loss path")
	}
	if !ops.sawState(CongRecovery) && !ops.sawState(CongLoss) {
		t.Error("no recovery or loss state transition after drops")
	}
	// AND retransmissions still complete the transfer
	if done, _ := f.Done(); !done {
		t.Errorf("transfer incomplete: %d bytes acked", f.BytesAcked())
	}
}

func TestFlow_EcnMarkingDrivesCwrCycle(t *testing.T) {
	// GIVEN CE marking well below the queue limit and ECN negotiated
	s := NewSimulator(30_000_000)
	ops := &renoOps{}
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 100, EcnThreshold: 3})
	f := startFlow(s, ops, link, 40*DefaultSegmentSize, true)

	// WHEN the simulation runs
	s.Run()

	// THEN the ECE echo provoked the CE event and a threshold query
	if !ops.sawEvent(CaEventEcnIsCe) {
		t.Fatal("no CE event despite marking threshold")
	}
	if ops.thresholdCalls == 0 {
		t.Error("CE echo never reached the threshold query")
	}
	// AND the connection went through the CWR response and back
	if !ops.sawState(CongCwr) {
		t.Error("no CWR transition after the CE echo")
	}
	if !ops.sawEvent(CaEventCompleteCwr) {
		t.Error("CWR never completed after the marks cleared")
	}
	if done, _ := f.Done(); !done {
		t.Errorf("transfer incomplete: %d bytes acked", f.BytesAcked())
	}
}

func TestFlow_EcnDisabledNeverMarks(t *testing.T) {
	// GIVEN the same marking threshold but ECN not negotiated
	s := NewSimulator(30_000_000)
	ops := &renoOps{}
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 100, EcnThreshold: 3})
	startFlow(s, ops, link, 40*DefaultSegmentSize, false)

	// WHEN the simulation runs
	s.Run()

	// THEN no ECN event ever fires
	if ops.sawEvent(CaEventEcnIsCe) || ops.sawEvent(CaEventEcnNoCe) {
		t.Error("ECN events delivered on a non-ECN connection")
	}
}

func TestNewFlow_RtoConfiguration(t *testing.T) {
	// GIVEN a flow with an explicit timeout and one without
	link := NewLink(LinkConfig{RateMbps: 1, QueueLimit: 1})
	topo := NewTopology()
	sock := topo.AddNode().NewSocket(&renoOps{}, false)

	withRto := NewFlow(FlowConfig{ID: "a", RtoMs: 50}, sock, link)
	defaulted := NewFlow(FlowConfig{ID: "b"}, sock, link)

	// THEN the explicit value converts to ticks, zero takes the default
	if withRto.Rto != 50_000 {
		t.Errorf("explicit RTO: got %d ticks, want 50000", withRto.Rto)
	}
	if defaulted.Rto != defaultRtoTicks {
		t.Errorf("defaulted RTO: got %d ticks, want %d", defaulted.Rto, defaultRtoTicks)
	}
}

func TestLink_ConfigConversion(t *testing.T) {
	// GIVEN a 10 Mbps / 1 ms link
	link := NewLink(LinkConfig{RateMbps: 10, DelayMs: 1, QueueLimit: 7, EcnThreshold: 2})

	// THEN rates and delays convert to bps and ticks
	if link.RateBps != 10_000_000 {
		t.Errorf("RateBps: got %d, want 10000000", link.RateBps)
	}
	if link.Delay != 1000 {
		t.Errorf("Delay ticks: got %d, want 1000", link.Delay)
	}
	// AND serialization of one segment is size*8/rate in microseconds
	if got := link.serializationTicks(DefaultSegmentSize); got != 1158 {
		t.Errorf("serialization ticks: got %d, want 1158", got)
	}
	// AND tiny packets still cost at least one tick
	if got := link.serializationTicks(1); got != 1 {
		t.Errorf("minimum serialization: got %d, want 1", got)
	}
}
