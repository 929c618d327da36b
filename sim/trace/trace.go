package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// StepTrace collects agent round-trip records during a simulation run.
// Each run carries a unique identifier so dumped traces from repeated
// runs stay distinguishable.
type StepTrace struct {
	RunID string       `json:"run_id"`
	Steps []StepRecord `json:"steps"`
}

// NewStepTrace creates a StepTrace ready for recording.
func NewStepTrace() *StepTrace {
	return &StepTrace{
		RunID: uuid.NewString(),
		Steps: make([]StepRecord, 0),
	}
}

// Record appends a round-trip record.
func (st *StepTrace) Record(r StepRecord) {
	st.Steps = append(st.Steps, r)
}

// WriteFile dumps the trace as indented JSON.
func (st *StepTrace) WriteFile(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace %s: %w", path, err)
	}
	return nil
}
