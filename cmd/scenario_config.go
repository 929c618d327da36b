package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FlowSpec is the yaml form of one flow in a scenario file.
type FlowSpec struct {
	ID         string  `yaml:"id"`
	StartMs    float64 `yaml:"start_ms"`
	TransferMB float64 `yaml:"transfer_mb"` // 0 = send until horizon
	Ecn        bool    `yaml:"ecn"`
}

// AgentSpec selects the decision agent for a scenario.
type AgentSpec struct {
	Kind  string `yaml:"kind"`   // "unchanged", "aimd" or "ws"
	WsURL string `yaml:"ws_url"` // required for kind "ws"
}

// LinkSpec is the yaml form of the bottleneck link.
type LinkSpec struct {
	RateMbps     float64 `yaml:"rate_mbps"`
	DelayMs      float64 `yaml:"delay_ms"`
	QueueLimit   int     `yaml:"queue_limit"`
	EcnThreshold int     `yaml:"ecn_threshold"` // 0 = ECN marking off
}

// ScenarioConfig is a full simulation scenario: bottleneck, flows,
// agent and reward policy selection.
type ScenarioConfig struct {
	HorizonMs float64    `yaml:"horizon_ms"`
	Link      LinkSpec   `yaml:"link"`
	Flows     []FlowSpec `yaml:"flows"`
	Agent     AgentSpec  `yaml:"agent"`
	Policy    string     `yaml:"policy"` // "ecn-aware" (default) or "fixed"
}

// DefaultScenarioConfig returns a single-flow dumbbell over a 10 Mbps,
// 10 ms bottleneck with ECN marking enabled.
func DefaultScenarioConfig() *ScenarioConfig {
	return &ScenarioConfig{
		HorizonMs: 10_000,
		Link: LinkSpec{
			RateMbps:     10,
			DelayMs:      10,
			QueueLimit:   100,
			EcnThreshold: 30,
		},
		Flows: []FlowSpec{
			{ID: "flow-0", StartMs: 0, TransferMB: 2, Ecn: true},
		},
		Agent:  AgentSpec{Kind: "aimd"},
		Policy: "ecn-aware",
	}
}

// LoadScenarioConfig reads and validates a scenario yaml file.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	cfg := DefaultScenarioConfig()
	// a file listing its own flows replaces the default flow
	cfg.Flows = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(cfg.Flows) == 0 {
		cfg.Flows = DefaultScenarioConfig().Flows
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects scenarios the simulator cannot run.
func (c *ScenarioConfig) Validate() error {
	if c.HorizonMs <= 0 {
		return fmt.Errorf("horizon_ms must be positive, got %v", c.HorizonMs)
	}
	if c.Link.RateMbps <= 0 {
		return fmt.Errorf("link rate_mbps must be positive, got %v", c.Link.RateMbps)
	}
	if c.Link.QueueLimit <= 0 {
		return fmt.Errorf("link queue_limit must be positive, got %v", c.Link.QueueLimit)
	}
	switch c.Agent.Kind {
	case "", "unchanged", "aimd":
	case "ws":
		if c.Agent.WsURL == "" {
			return fmt.Errorf("agent kind ws requires ws_url")
		}
	default:
		return fmt.Errorf("unknown agent kind %q", c.Agent.Kind)
	}
	switch c.Policy {
	case "", "ecn-aware", "fixed":
	default:
		return fmt.Errorf("unknown reward policy %q", c.Policy)
	}
	for i, f := range c.Flows {
		if f.ID == "" {
			return fmt.Errorf("flow %d: id is required", i)
		}
	}
	return nil
}
