package sim

import (
	"time"

	"github.com/sirupsen/logrus"
)

// defaultRtoTicks is the fixed retransmission timeout (200ms).
const defaultRtoTicks = 200_000

// Link is a bottleneck link with a drop-tail queue and optional ECN
// marking. Serialization happens at RateBps; packets that find the
// queue full are dropped silently, packets that find it above
// EcnThreshold are CE-marked.
type Link struct {
	RateBps      int64
	Delay        int64 // one-way propagation delay, ticks
	QueueLimit   int
	EcnThreshold int

	queued    int
	busyUntil int64
}

// NewLink builds a Link from a LinkConfig.
func NewLink(cfg LinkConfig) *Link {
	return &Link{
		RateBps:      int64(cfg.RateMbps * 1e6),
		Delay:        int64(cfg.DelayMs * 1000),
		QueueLimit:   cfg.QueueLimit,
		EcnThreshold: cfg.EcnThreshold,
	}
}

// QueueDepth returns the number of packets queued or serializing.
func (l *Link) QueueDepth() int { return l.queued }

// serializationTicks returns the transmission time of size bytes.
func (l *Link) serializationTicks(size uint32) int64 {
	t := int64(size) * 8 * 1e6 / l.RateBps
	if t < 1 {
		t = 1
	}
	return t
}

// Ack is a cumulative acknowledgment travelling back to the sender.
type Ack struct {
	Cum     uint32 // next expected segment (cumulative)
	EchoSeq uint32 // data segment that triggered this ack
	ECE     bool   // echo of the CE mark on that segment
}

// Flow is a unidirectional transfer from a sender socket through a
// bottleneck link to a receiver. It models just enough of a reliable
// transport (cumulative ACKs, dup-ACK fast retransmit, a coarse RTO,
// ECN echo) to drive the congestion-control hooks at realistic
// decision points. Sequence numbers count segments, not bytes.
type Flow struct {
	ID            string
	Sender        *Socket
	Link          *Link
	TransferBytes uint64 // 0 = send until horizon
	Rto           int64  // ticks

	// sender state
	nextSeq    uint32
	cumAcked   uint32
	sendTimes  map[uint32]int64
	dupAcks    int
	inRecovery bool
	recoverSeq uint32
	rtoArmed   bool
	done       bool
	doneAt     int64

	// receiver state
	expected uint32
	buffered map[uint32]bool
}

// NewFlow wires a flow between sender and link.
func NewFlow(cfg FlowConfig, sender *Socket, link *Link) *Flow {
	rto := int64(cfg.RtoMs * 1000)
	if rto <= 0 {
		rto = defaultRtoTicks
	}
	return &Flow{
		ID:            cfg.ID,
		Sender:        sender,
		Link:          link,
		TransferBytes: cfg.TransferBytes,
		Rto:           rto,
		sendTimes:     make(map[uint32]int64),
		buffered:      make(map[uint32]bool),
	}
}

// Done reports whether the transfer completed, and at which tick.
func (f *Flow) Done() (bool, int64) { return f.done, f.doneAt }

// BytesAcked returns the cumulatively acknowledged byte count.
func (f *Flow) BytesAcked() uint64 {
	return uint64(f.cumAcked) * uint64(f.Sender.State.SegmentSize)
}

// totalSegments returns the transfer length in segments (0 = unbounded).
func (f *Flow) totalSegments() uint32 {
	if f.TransferBytes == 0 {
		return 0
	}
	seg := uint64(f.Sender.State.SegmentSize)
	return uint32((f.TransferBytes + seg - 1) / seg)
}

func (f *Flow) start(sim *Simulator, now int64) {
	tcb := f.Sender.State
	f.Sender.Ops.CongestionEvent(tcb, CaEventTxStart)
	f.sendPending(sim, now)
}

// sendPending transmits new segments while the congestion window
// allows.
func (f *Flow) sendPending(sim *Simulator, now int64) {
	tcb := f.Sender.State
	for !f.done {
		if total := f.totalSegments(); total > 0 && f.nextSeq >= total {
			return
		}
		if int64(tcb.BytesInFlight)+int64(tcb.SegmentSize) > int64(tcb.Cwnd) {
			return
		}
		f.transmit(sim, now, f.nextSeq, false)
		f.nextSeq++
	}
}

// transmit sends one segment into the bottleneck. A segment dropped at
// the queue is simply never delivered; dup ACKs or the RTO recover it.
func (f *Flow) transmit(sim *Simulator, now int64, seq uint32, retx bool) {
	tcb := f.Sender.State
	pkt := &Packet{Seq: seq, Size: tcb.SegmentSize, SendTime: now, Retransmit: retx}

	// A retransmitted segment is already accounted in flight.
	if _, outstanding := f.sendTimes[seq]; !outstanding {
		tcb.BytesInFlight += tcb.SegmentSize
	}
	f.sendTimes[seq] = now
	f.Sender.notifyTx(pkt)
	f.armRto(sim, now)

	if f.Link.queued >= f.Link.QueueLimit {
		logrus.Debugf("flow %s: queue overflow, dropping seq %d", f.ID, seq)
		return
	}
	if f.Link.EcnThreshold > 0 && tcb.EcnState != EcnDisabled && f.Link.queued >= f.Link.EcnThreshold {
		pkt.CE = true
	}
	f.Link.queued++
	txTime := f.Link.serializationTicks(pkt.Size)
	start := max(now, f.Link.busyUntil)
	depart := start + txTime
	f.Link.busyUntil = depart
	sim.Schedule(&DepartEvent{time: depart, Flow: f, Pkt: pkt})
}

func (f *Flow) handleDepart(sim *Simulator, now int64, pkt *Packet) {
	f.Link.queued--
	sim.Schedule(&ArriveEvent{time: now + f.Link.Delay, Flow: f, Pkt: pkt})
}

// handleArrive runs the receiver: advance the cumulative ack past any
// buffered in-order segments and echo the CE mark back to the sender.
func (f *Flow) handleArrive(sim *Simulator, now int64, pkt *Packet) {
	if pkt.Seq == f.expected {
		f.expected++
		for f.buffered[f.expected] {
			delete(f.buffered, f.expected)
			f.expected++
		}
	} else if pkt.Seq > f.expected {
		f.buffered[pkt.Seq] = true
	}
	ack := &Ack{Cum: f.expected, EchoSeq: pkt.Seq, ECE: pkt.CE}
	sim.Schedule(&AckEvent{time: now + f.Link.Delay, Flow: f, Ack: ack})
}

// handleAck runs the sender side of acknowledgment processing: RTT
// sampling, ECN echo handling, cumulative progress or dup-ACK loss
// detection, and the congestion-control hook calls for each.
func (f *Flow) handleAck(sim *Simulator, now int64, ack *Ack) {
	if f.done {
		return
	}
	tcb := f.Sender.State
	ops := f.Sender.Ops

	f.Sender.notifyRx(&Packet{Seq: ack.Cum, SendTime: now})

	if sent, ok := f.sendTimes[ack.EchoSeq]; ok {
		tcb.UpdateRttSample(time.Duration(now-sent) * time.Microsecond)
	}

	if tcb.EcnState != EcnDisabled {
		if ack.ECE {
			tcb.EcnState = EcnEceReceived
			ops.CongestionEvent(tcb, CaEventEcnIsCe)
			if tcb.CongState != CongCwr {
				ss := ops.QueryThreshold(tcb, tcb.BytesInFlight)
				tcb.SsThresh = ss
				if tcb.Cwnd > ss {
					tcb.Cwnd = max(ss, 2*tcb.SegmentSize)
				}
				tcb.CongState = CongCwr
				ops.CongestionStateChanged(tcb, CongCwr)
				tcb.EcnState = EcnCwrSent
			}
		} else {
			ops.CongestionEvent(tcb, CaEventEcnNoCe)
			if tcb.EcnState == EcnCwrSent {
				ops.CongestionEvent(tcb, CaEventCompleteCwr)
				tcb.EcnState = EcnIdle
				if tcb.CongState == CongCwr {
					tcb.CongState = CongOpen
					ops.CongestionStateChanged(tcb, CongOpen)
				}
			}
		}
	}

	newly := int64(ack.Cum) - int64(f.cumAcked)
	if newly > 0 {
		for seq := f.cumAcked; seq < ack.Cum; seq++ {
			delete(f.sendTimes, seq)
		}
		f.cumAcked = ack.Cum
		f.dupAcks = 0

		release := uint32(newly) * tcb.SegmentSize
		if tcb.BytesInFlight >= release {
			tcb.BytesInFlight -= release
		} else {
			tcb.BytesInFlight = 0
		}

		ops.RecordAcknowledged(tcb, uint32(newly), tcb.LastRtt)

		if f.inRecovery && f.cumAcked >= f.recoverSeq {
			f.inRecovery = false
			tcb.CongState = CongOpen
			ops.CongestionStateChanged(tcb, CongOpen)
		}
		if !f.inRecovery && tcb.CongState == CongDisorder {
			tcb.CongState = CongOpen
			ops.CongestionStateChanged(tcb, CongOpen)
		}

		ops.IncreaseWindow(tcb, uint32(newly))

		if total := f.totalSegments(); total > 0 && f.cumAcked >= total {
			f.done = true
			f.doneAt = now
			logrus.Infof("flow %s: transfer complete at %d ticks", f.ID, now)
			return
		}
	} else {
		f.dupAcks++
		if f.dupAcks == 1 && tcb.CongState == CongOpen {
			tcb.CongState = CongDisorder
			ops.CongestionStateChanged(tcb, CongDisorder)
		}
		if f.dupAcks == 3 && !f.inRecovery {
			f.enterRecovery(sim, now)
		}
	}

	f.sendPending(sim, now)
}

// enterRecovery performs fast retransmit of the first missing segment.
func (f *Flow) enterRecovery(sim *Simulator, now int64) {
	tcb := f.Sender.State
	ops := f.Sender.Ops
	logrus.Debugf("flow %s: fast retransmit of seq %d at %d ticks", f.ID, f.cumAcked, now)

	ss := ops.QueryThreshold(tcb, tcb.BytesInFlight)
	tcb.SsThresh = ss
	tcb.Cwnd = max(ss, 2*tcb.SegmentSize)
	tcb.CongState = CongRecovery
	ops.CongestionStateChanged(tcb, CongRecovery)

	f.inRecovery = true
	f.recoverSeq = f.nextSeq
	f.transmit(sim, now, f.cumAcked, true)
}

func (f *Flow) armRto(sim *Simulator, now int64) {
	if f.rtoArmed || f.done {
		return
	}
	f.rtoArmed = true
	sim.Schedule(&RtoEvent{time: now + f.Rto, Flow: f, AckedAtArm: f.cumAcked})
}

// handleRto restarts the flow from the last cumulative ack when no
// progress happened for a full timeout.
func (f *Flow) handleRto(sim *Simulator, now int64, ackedAtArm uint32) {
	f.rtoArmed = false
	if f.done || f.nextSeq <= f.cumAcked {
		return
	}
	if f.cumAcked > ackedAtArm {
		// progress since arming; keep the timer running
		f.armRto(sim, now)
		return
	}

	tcb := f.Sender.State
	ops := f.Sender.Ops
	logrus.Debugf("flow %s: retransmission timeout at %d ticks", f.ID, now)

	ops.CongestionEvent(tcb, CaEventLoss)
	tcb.CongState = CongLoss
	ops.CongestionStateChanged(tcb, CongLoss)
	tcb.SsThresh = ops.QueryThreshold(tcb, tcb.BytesInFlight)

	// classic timeout response: collapse to one segment and resend
	tcb.Cwnd = tcb.SegmentSize
	tcb.BytesInFlight = 0
	clear(f.sendTimes)
	f.nextSeq = f.cumAcked
	f.inRecovery = false
	f.dupAcks = 0
	f.sendPending(sim, now)
}
