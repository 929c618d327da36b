package bridge

import (
	"github.com/tcprl-sim/tcprl-sim/sim"
	"github.com/tcprl-sim/tcprl-sim/sim/agent"
)

// ObsValueMax bounds every encoded observation field. Quantities that
// could exceed it (the effectively-unbounded initial slow start
// threshold, long simulations) are clamped, never wrapped.
const ObsValueMax = 1_000_000_000

// obsModeEvent tags observations produced by the event-driven bridge.
const obsModeEvent = 0

// encodeObservation renders the fixed-order observation vector from
// the bridge state and the bound control block. With no control block
// seen yet, every field from the slow start threshold onward stays
// zero: a partial observation, distinguishable downstream only by its
// all-zero tail.
func (b *Bridge) encodeObservation() agent.Observation {
	var obs agent.Observation

	obs[0] = clampU64(b.connID)
	obs[1] = obsModeEvent
	obs[2] = clampI64(b.clock.Now())
	obs[3] = clampU64(uint64(b.nodeID))

	if b.tcb == nil {
		return obs
	}

	obs[4] = clampU64(uint64(b.tcb.SsThresh))
	obs[5] = clampU64(uint64(b.tcb.Cwnd))
	obs[6] = clampU64(uint64(b.tcb.SegmentSize))
	obs[7] = clampU64(uint64(b.segmentsAcked))
	obs[8] = clampU64(uint64(b.bytesInFlight))
	obs[9] = clampI64(b.lastRtt.Microseconds())
	if b.tcb.MinRtt == sim.MinRttUnset {
		obs[10] = 0
	} else {
		obs[10] = clampI64(b.tcb.MinRtt.Microseconds())
	}
	obs[11] = uint64(b.calledFunc)
	obs[12] = uint64(b.tcb.CongState)
	obs[13] = uint64(b.lastCaEvent)
	obs[14] = uint64(b.tcb.EcnState)

	return obs
}

func clampU64(v uint64) uint64 {
	if v > ObsValueMax {
		return ObsValueMax
	}
	return v
}

func clampI64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return clampU64(uint64(v))
}
