package trace

// TraceSummary aggregates statistics from a StepTrace.
type TraceSummary struct {
	TotalSteps  int
	MeanReward  float64
	MinReward   float64
	MaxReward   float64
	HookCounts  map[Hook]int
	Connections int // distinct connection ids seen
}

// Summarize computes aggregate statistics from a StepTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *StepTrace) *TraceSummary {
	summary := &TraceSummary{
		HookCounts: make(map[Hook]int),
	}
	if st == nil || len(st.Steps) == 0 {
		return summary
	}

	summary.TotalSteps = len(st.Steps)
	conns := make(map[uint64]bool)
	total := 0.0
	summary.MinReward = st.Steps[0].Reward
	summary.MaxReward = st.Steps[0].Reward
	for _, s := range st.Steps {
		total += s.Reward
		if s.Reward < summary.MinReward {
			summary.MinReward = s.Reward
		}
		if s.Reward > summary.MaxReward {
			summary.MaxReward = s.Reward
		}
		summary.HookCounts[s.Hook]++
		conns[s.ConnID] = true
	}
	summary.MeanReward = total / float64(len(st.Steps))
	summary.Connections = len(conns)

	return summary
}
