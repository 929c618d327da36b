package sim

import "time"

// CongestionOps is the congestion-control hook contract. The transport
// layer invokes these at its decision points; all hooks run on the
// event-processing goroutine, never concurrently for one connection.
//
// Every hook must tolerate a nil connection state: the transport layer
// may fire around connection setup and teardown before the control
// block exists. Implementations degrade gracefully in that case and
// must not treat it as an error.
type CongestionOps interface {
	// QueryThreshold returns the new slow start threshold after a loss
	// or congestion signal. With a nil state it returns
	// bytesInFlight/2 and has no other effect.
	QueryThreshold(state *ConnectionState, bytesInFlight uint32) uint32

	// IncreaseWindow grows (or otherwise adjusts) the congestion
	// window after segmentsAcked segments were cumulatively
	// acknowledged. It may mutate state.Cwnd.
	IncreaseWindow(state *ConnectionState, segmentsAcked uint32)

	// RecordAcknowledged reports an acknowledgment batch together with
	// its round-trip sample. Bookkeeping only; no window decision.
	RecordAcknowledged(state *ConnectionState, segmentsAcked uint32, rtt time.Duration)

	// CongestionStateChanged reports a congestion machine transition.
	CongestionStateChanged(state *ConnectionState, newState CongState)

	// CongestionEvent reports a congestion-window event (ECN marks,
	// loss, CWR completion, transmission start).
	CongestionEvent(state *ConnectionState, event CaEvent)
}
