package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// FlowStartEvent begins transmission on a flow.
type FlowStartEvent struct {
	time int64
	Flow *Flow
}

// Timestamp returns the scheduled time of the FlowStartEvent.
func (e *FlowStartEvent) Timestamp() int64 { return e.time }

// Execute starts the flow's sender.
func (e *FlowStartEvent) Execute(sim *Simulator) {
	logrus.Infof("<< FlowStart: %s at %d ticks", e.Flow.ID, e.time)
	e.Flow.start(sim, e.time)
}

// DepartEvent marks the end of a packet's serialization at the
// bottleneck link: the packet leaves the queue and enters propagation.
type DepartEvent struct {
	time int64
	Flow *Flow
	Pkt  *Packet
}

func (e *DepartEvent) Timestamp() int64 { return e.time }

func (e *DepartEvent) Execute(sim *Simulator) {
	e.Flow.handleDepart(sim, e.time, e.Pkt)
}

// ArriveEvent delivers a data packet to the receiver.
type ArriveEvent struct {
	time int64
	Flow *Flow
	Pkt  *Packet
}

func (e *ArriveEvent) Timestamp() int64 { return e.time }

func (e *ArriveEvent) Execute(sim *Simulator) {
	e.Flow.handleArrive(sim, e.time, e.Pkt)
}

// AckEvent delivers a cumulative acknowledgment back to the sender.
type AckEvent struct {
	time int64
	Flow *Flow
	Ack  *Ack
}

func (e *AckEvent) Timestamp() int64 { return e.time }

func (e *AckEvent) Execute(sim *Simulator) {
	e.Flow.handleAck(sim, e.time, e.Ack)
}

// RtoEvent fires the sender's retransmission timer. The snapshot of
// the cumulative ack at arming time tells the handler whether any
// progress happened in the meantime.
type RtoEvent struct {
	time       int64
	Flow       *Flow
	AckedAtArm uint32
}

func (e *RtoEvent) Timestamp() int64 { return e.time }

func (e *RtoEvent) Execute(sim *Simulator) {
	e.Flow.handleRto(sim, e.time, e.AckedAtArm)
}
