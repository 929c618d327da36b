package sim

import (
	"math"
	"time"
)

// CongState enumerates the congestion machine states of a connection,
// following the Linux naming. The numeric values are part of the
// observation contract and must not be reordered.
type CongState uint8

const (
	CongOpen CongState = iota
	CongDisorder
	CongCwr
	CongRecovery
	CongLoss
)

func (s CongState) String() string {
	switch s {
	case CongOpen:
		return "open"
	case CongDisorder:
		return "disorder"
	case CongCwr:
		return "cwr"
	case CongRecovery:
		return "recovery"
	case CongLoss:
		return "loss"
	}
	return "unknown"
}

// EcnState enumerates the sender-side ECN machine states. The numeric
// values are part of the observation contract.
type EcnState uint8

const (
	EcnDisabled EcnState = iota
	EcnIdle
	EcnCeReceived
	EcnSendingEce
	EcnEceReceived
	EcnCwrSent
)

func (s EcnState) String() string {
	switch s {
	case EcnDisabled:
		return "disabled"
	case EcnIdle:
		return "idle"
	case EcnCeReceived:
		return "ce-received"
	case EcnSendingEce:
		return "sending-ece"
	case EcnEceReceived:
		return "ece-received"
	case EcnCwrSent:
		return "cwr-sent"
	}
	return "unknown"
}

// CaEvent enumerates congestion-window events delivered to the
// congestion-control hooks. The numeric values are part of the
// observation contract.
type CaEvent uint8

const (
	CaEventTxStart CaEvent = iota
	CaEventCwndRestart
	CaEventCompleteCwr
	CaEventLoss
	CaEventEcnNoCe
	CaEventEcnIsCe
)

func (e CaEvent) String() string {
	switch e {
	case CaEventTxStart:
		return "tx-start"
	case CaEventCwndRestart:
		return "cwnd-restart"
	case CaEventCompleteCwr:
		return "complete-cwr"
	case CaEventLoss:
		return "loss"
	case CaEventEcnNoCe:
		return "ecn-no-ce"
	case CaEventEcnIsCe:
		return "ecn-is-ce"
	}
	return "unknown"
}

// MinRttUnset is the sentinel held in ConnectionState.MinRtt before the
// first round-trip sample arrives. It must never leak into an encoded
// observation as a numeric value.
const MinRttUnset = time.Duration(math.MaxInt64)

// DefaultSegmentSize is the segment size assigned to new sockets, in bytes.
const DefaultSegmentSize = 1448

// initialWindowSegments is the initial congestion window (IW10).
const initialWindowSegments = 10

// ConnectionState is the transmission control block of a connection:
// the mutable congestion state shared between the transport layer and
// its congestion-control module. The congestion-control hooks receive
// a reference that is only valid for the duration of the call.
type ConnectionState struct {
	SsThresh      uint32 // slow start threshold, bytes
	Cwnd          uint32 // congestion window, bytes
	SegmentSize   uint32 // bytes
	BytesInFlight uint32 // bytes sent but not yet acknowledged
	LastRtt       time.Duration
	MinRtt        time.Duration // MinRttUnset until the first sample
	CongState     CongState
	EcnState      EcnState
}

// NewConnectionState returns a ConnectionState with protocol defaults:
// effectively-unbounded slow start threshold, IW10 congestion window,
// and the MinRtt sentinel in place.
func NewConnectionState(ecnEnabled bool) *ConnectionState {
	ecn := EcnDisabled
	if ecnEnabled {
		ecn = EcnIdle
	}
	return &ConnectionState{
		SsThresh:    math.MaxUint32,
		Cwnd:        initialWindowSegments * DefaultSegmentSize,
		SegmentSize: DefaultSegmentSize,
		MinRtt:      MinRttUnset,
		CongState:   CongOpen,
		EcnState:    ecn,
	}
}

// UpdateRttSample records a round-trip sample on the connection state,
// maintaining the running minimum.
func (cs *ConnectionState) UpdateRttSample(rtt time.Duration) {
	cs.LastRtt = rtt
	if cs.MinRtt == MinRttUnset || rtt < cs.MinRtt {
		cs.MinRtt = rtt
	}
}
