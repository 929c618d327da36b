package bridge

import (
	"time"

	"github.com/tcprl-sim/tcprl-sim/sim"
)

// RewardPolicy computes the scalar reward published with each
// observation. The policy is selected at bridge construction and
// composed into the bridge, one variant per bridge flavor.
type RewardPolicy interface {
	// ThresholdReward scores a loss-path cycle. ecnSignaled is true
	// when the cycle was classified as provoked by an ECN signal
	// rather than true loss.
	ThresholdReward(ecnSignaled bool) float64

	// GrowthReward scores a growth-path cycle from the acknowledged
	// segment count and the current round-trip samples.
	GrowthReward(segmentsAcked uint32, lastRtt, minRtt time.Duration) float64
}

// Default coefficients of the ECN-aware policy.
const (
	DefaultEcnPenalty        = -5.0
	DefaultLossPenalty       = -15.0
	DefaultThroughputCoeff   = 0.5
	DefaultRttRatioThreshold = 1.5
	DefaultInflationCoeff    = 2.0
)

// EcnAwarePolicy distinguishes proactive ECN signals from reactive
// true loss on the threshold path, and trades throughput progress
// against round-trip inflation on the growth path.
type EcnAwarePolicy struct {
	EcnPenalty        float64 // threshold cycle classified ECN-signaled
	LossPenalty       float64 // threshold cycle classified true loss
	ThroughputCoeff   float64 // per acked segment
	RttRatioThreshold float64 // lastRtt/minRtt ratio above which inflation is penalized
	InflationCoeff    float64 // scales (ratio - 1) into the penalty
}

// NewEcnAwarePolicy returns the policy with its default coefficients.
func NewEcnAwarePolicy() *EcnAwarePolicy {
	return &EcnAwarePolicy{
		EcnPenalty:        DefaultEcnPenalty,
		LossPenalty:       DefaultLossPenalty,
		ThroughputCoeff:   DefaultThroughputCoeff,
		RttRatioThreshold: DefaultRttRatioThreshold,
		InflationCoeff:    DefaultInflationCoeff,
	}
}

func (p *EcnAwarePolicy) ThresholdReward(ecnSignaled bool) float64 {
	if ecnSignaled {
		// proactive congestion signal, milder penalty
		return p.EcnPenalty
	}
	return p.LossPenalty
}

func (p *EcnAwarePolicy) GrowthReward(segmentsAcked uint32, lastRtt, minRtt time.Duration) float64 {
	bonus := float64(segmentsAcked) * p.ThroughputCoeff

	// The inflation term applies only when both samples are defined;
	// the unset MinRtt sentinel never enters the ratio.
	penalty := 0.0
	if lastRtt > 0 && minRtt > 0 && minRtt != sim.MinRttUnset {
		ratio := float64(lastRtt) / float64(minRtt)
		if ratio > p.RttRatioThreshold {
			penalty = (ratio - 1.0) * p.InflationCoeff
		}
	}
	return bonus - penalty
}

// FixedPolicy pays a flat reward per growth cycle and a flat penalty
// per threshold cycle, ignoring ECN classification and RTT samples.
type FixedPolicy struct {
	Reward  float64
	Penalty float64
}

// NewFixedPolicy returns the fixed policy with its default values.
func NewFixedPolicy() *FixedPolicy {
	return &FixedPolicy{Reward: 1.0, Penalty: -10.0}
}

func (p *FixedPolicy) ThresholdReward(bool) float64 { return p.Penalty }

func (p *FixedPolicy) GrowthReward(uint32, time.Duration, time.Duration) float64 {
	return p.Reward
}
