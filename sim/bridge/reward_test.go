package bridge

import (
	"testing"
	"time"

	"github.com/tcprl-sim/tcprl-sim/sim"
)

func TestEcnAwarePolicy_ThresholdReward(t *testing.T) {
	// GIVEN the default ECN-aware policy
	p := NewEcnAwarePolicy()

	// THEN an ECN-signaled cycle pays the proactive penalty
	if got := p.ThresholdReward(true); got != -5.0 {
		t.Errorf("ECN-signaled threshold reward: got %v, want -5.0", got)
	}
	// AND a true-loss cycle pays the reactive penalty
	if got := p.ThresholdReward(false); got != -15.0 {
		t.Errorf("true-loss threshold reward: got %v, want -15.0", got)
	}
}

func TestEcnAwarePolicy_GrowthReward_NoSamples(t *testing.T) {
	// GIVEN no round-trip samples recorded (both fields zero)
	p := NewEcnAwarePolicy()

	// WHEN 4 segments are acked
	got := p.GrowthReward(4, 0, 0)

	// THEN reward is the pure throughput bonus, penalty 0
	if got != 2.0 {
		t.Errorf("growth reward without samples: got %v, want 2.0", got)
	}
}

func TestEcnAwarePolicy_GrowthReward_UnsetSentinelExcluded(t *testing.T) {
	// GIVEN a last RTT sample but an unset minimum RTT sentinel
	p := NewEcnAwarePolicy()

	// WHEN the reward is computed
	got := p.GrowthReward(4, 300*time.Microsecond, sim.MinRttUnset)

	// THEN the sentinel never enters the inflation ratio
	if got != 2.0 {
		t.Errorf("growth reward with sentinel minRtt: got %v, want 2.0", got)
	}
}

func TestEcnAwarePolicy_GrowthReward_Inflation(t *testing.T) {
	// GIVEN lastRtt=300, minRtt=100 (ratio 3.0 > 1.5)
	p := NewEcnAwarePolicy()

	// WHEN 2 segments are acked
	got := p.GrowthReward(2, 300, 100)

	// THEN reward = 2*0.5 - (3.0-1.0)*2.0 = -3.0
	if got != -3.0 {
		t.Errorf("inflated growth reward: got %v, want -3.0", got)
	}
}

func TestEcnAwarePolicy_GrowthReward_RatioAtThreshold(t *testing.T) {
	// GIVEN a ratio exactly at the threshold (150/100 = 1.5)
	p := NewEcnAwarePolicy()

	// WHEN 1 segment is acked
	got := p.GrowthReward(1, 150, 100)

	// THEN no penalty applies (threshold must be exceeded)
	if got != 0.5 {
		t.Errorf("growth reward at ratio threshold: got %v, want 0.5", got)
	}
}

func TestFixedPolicy_FlatRewards(t *testing.T) {
	// GIVEN the default fixed policy
	p := NewFixedPolicy()

	// THEN classification and samples are ignored
	if got := p.ThresholdReward(true); got != -10.0 {
		t.Errorf("fixed threshold reward (ecn): got %v, want -10.0", got)
	}
	if got := p.ThresholdReward(false); got != -10.0 {
		t.Errorf("fixed threshold reward (loss): got %v, want -10.0", got)
	}
	if got := p.GrowthReward(7, 900, 100); got != 1.0 {
		t.Errorf("fixed growth reward: got %v, want 1.0", got)
	}
}
