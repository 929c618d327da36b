package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestDefaultScenarioConfig(t *testing.T) {
	cfg := DefaultScenarioConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10_000.0, cfg.HorizonMs)
	assert.Equal(t, 10.0, cfg.Link.RateMbps)
	assert.Equal(t, 30, cfg.Link.EcnThreshold)
	require.Len(t, cfg.Flows, 1)
	assert.True(t, cfg.Flows[0].Ecn)
	assert.Equal(t, "aimd", cfg.Agent.Kind)
	assert.Equal(t, "ecn-aware", cfg.Policy)
}

func TestLoadScenarioConfig(t *testing.T) {
	path := writeScenario(t, `
horizon_ms: 5000
link:
  rate_mbps: 50
  delay_ms: 5
  queue_limit: 200
  ecn_threshold: 60
flows:
  - id: bulk-a
    transfer_mb: 10
    ecn: true
  - id: bulk-b
    start_ms: 100
    transfer_mb: 10
agent:
  kind: ws
  ws_url: ws://127.0.0.1:5555/agent
policy: fixed
`)

	cfg, err := LoadScenarioConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.HorizonMs)
	assert.Equal(t, 50.0, cfg.Link.RateMbps)
	require.Len(t, cfg.Flows, 2)
	assert.Equal(t, "bulk-b", cfg.Flows[1].ID)
	assert.Equal(t, 100.0, cfg.Flows[1].StartMs)
	assert.False(t, cfg.Flows[1].Ecn)
	assert.Equal(t, "ws", cfg.Agent.Kind)
	assert.Equal(t, "fixed", cfg.Policy)
}

func TestLoadScenarioConfig_PartialFileKeepsDefaults(t *testing.T) {
	// a file without flows falls back to the default single flow
	path := writeScenario(t, `
link:
  rate_mbps: 1
`)

	cfg, err := LoadScenarioConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Link.RateMbps)
	assert.Equal(t, 10_000.0, cfg.HorizonMs)
	require.Len(t, cfg.Flows, 1)
	assert.Equal(t, "flow-0", cfg.Flows[0].ID)
}

func TestLoadScenarioConfig_Errors(t *testing.T) {
	_, err := LoadScenarioConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScenarioConfig(writeScenario(t, "horizon_ms: ["))
	assert.Error(t, err)
}

func TestScenarioConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScenarioConfig)
		wantErr string
	}{
		{
			name:    "zero horizon",
			mutate:  func(c *ScenarioConfig) { c.HorizonMs = 0 },
			wantErr: "horizon_ms",
		},
		{
			name:    "zero link rate",
			mutate:  func(c *ScenarioConfig) { c.Link.RateMbps = 0 },
			wantErr: "rate_mbps",
		},
		{
			name:    "zero queue limit",
			mutate:  func(c *ScenarioConfig) { c.Link.QueueLimit = 0 },
			wantErr: "queue_limit",
		},
		{
			name:    "ws agent without url",
			mutate:  func(c *ScenarioConfig) { c.Agent = AgentSpec{Kind: "ws"} },
			wantErr: "ws_url",
		},
		{
			name:    "unknown agent kind",
			mutate:  func(c *ScenarioConfig) { c.Agent.Kind = "oracle" },
			wantErr: "agent kind",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *ScenarioConfig) { c.Policy = "generous" },
			wantErr: "policy",
		},
		{
			name:    "flow without id",
			mutate:  func(c *ScenarioConfig) { c.Flows[0].ID = "" },
			wantErr: "id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScenarioConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
