package agent

// Observation field indices used by the built-in policies.
const (
	obsSsThresh   = 4
	obsCwnd       = 5
	obsSegSize    = 6
	obsAcked      = 7
	obsInFlight   = 8
	obsCalledFunc = 11
)

// calledThresholdQuery is the called-function tag for the loss path.
const calledThresholdQuery = 0

// Unchanged returns a policy that always echoes the observed threshold
// and window, i.e. leaves congestion control to the transport defaults.
func Unchanged() FuncChannel {
	return func(obs Observation, _ float64) Decision {
		return Decision{
			SsThresh: uint32(obs[obsSsThresh]),
			Cwnd:     uint32(obs[obsCwnd]),
		}
	}
}

// AIMD returns a Reno-style policy expressed as an agent: halve the
// window on a threshold query, slow-start or congestion-avoid on
// window increases. Useful as a sanity baseline for scenarios and as a
// stand-in when no external agent is attached.
func AIMD() FuncChannel {
	return func(obs Observation, _ float64) Decision {
		ssThresh := uint32(obs[obsSsThresh])
		cwnd := uint32(obs[obsCwnd])
		seg := uint32(obs[obsSegSize])
		if seg == 0 {
			return Decision{SsThresh: ssThresh, Cwnd: cwnd}
		}

		if obs[obsCalledFunc] == calledThresholdQuery {
			half := uint32(obs[obsInFlight]) / 2
			newSs := max(half, 2*seg)
			return Decision{SsThresh: newSs, Cwnd: newSs}
		}

		acked := uint32(obs[obsAcked])
		if cwnd < ssThresh {
			// slow start: one segment per acked segment
			cwnd += acked * seg
		} else if cwnd > 0 {
			// congestion avoidance: ~one segment per RTT
			inc := uint64(seg) * uint64(seg) * uint64(acked) / uint64(cwnd)
			cwnd += uint32(max(inc, 1))
		}
		return Decision{SsThresh: ssThresh, Cwnd: cwnd}
	}
}
