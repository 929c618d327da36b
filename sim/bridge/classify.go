package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/tcprl-sim/tcprl-sim/sim"
)

// classifyThresholdQuery decides whether a threshold query was
// provoked by an ECN signal rather than true loss. A CE-received or
// ECE-received ECN state at query time means the reduction is the
// proactive kind: the mark counter advances and the pending flag is
// raised for the reward computation to consume.
func (b *Bridge) classifyThresholdQuery(state *sim.ConnectionState) {
	if state.EcnState == sim.EcnCeReceived || state.EcnState == sim.EcnEceReceived {
		b.ecnMarkCount++
		b.ecnCongestionPending = true
		b.lastEcnTime = b.clock.Now()
		logrus.Infof("bridge %d: ECN-triggered threshold reduction at %d ticks", b.connID, b.lastEcnTime)
	}
}

// classifyCwndEvent updates the ECN counters and flags from an
// explicit congestion-window event.
func (b *Bridge) classifyCwndEvent(event sim.CaEvent) {
	switch event {
	case sim.CaEventEcnIsCe:
		// congestion-experienced mark seen
		b.ecnMarkCount++
		b.ecnCongestionPending = true
		b.networkClear = false
		b.lastEcnTime = b.clock.Now()
		logrus.Debugf("bridge %d: ECN CE mark at %d ticks", b.connID, b.lastEcnTime)

	case sim.CaEventEcnNoCe:
		// network reports clear: suppress any latent ECN classification
		b.ecnCongestionPending = false
		b.networkClear = true

	case sim.CaEventCompleteCwr:
		logrus.Debugf("bridge %d: CWR complete at %d ticks", b.connID, b.clock.Now())

	case sim.CaEventLoss:
		logrus.Debugf("bridge %d: loss event at %d ticks", b.connID, b.clock.Now())
	}
}
