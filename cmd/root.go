package cmd

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/tcprl-sim/tcprl-sim/sim"
	"github.com/tcprl-sim/tcprl-sim/sim/agent"
	"github.com/tcprl-sim/tcprl-sim/sim/bridge"
	"github.com/tcprl-sim/tcprl-sim/sim/trace"
)

var (
	// CLI flags
	logLevel      string  // Log verbosity level
	scenarioPath  string  // Path to a yaml scenario file
	horizonMs     float64 // Total simulation time (in ms)
	seed          int64   // Seed for flow start jitter
	startJitterMs float64 // Max random offset added to flow starts

	// flags composing an ad-hoc scenario when no file is given
	rateMbps     float64 // Bottleneck serialization rate
	delayMs      float64 // One-way propagation delay
	queueLimit   int     // Bottleneck queue capacity (packets)
	ecnThreshold int     // Queue depth at which CE marking starts
	numFlows     int     // Number of flows sharing the bottleneck
	transferMB   float64 // Bytes each flow delivers (0 = until horizon)
	ecnEnabled   bool    // Negotiate ECN on each connection

	agentKind string // Decision agent: unchanged, aimd, ws
	wsURL     string // Agent endpoint for --agent ws
	policy    string // Reward policy: ecn-aware, fixed
	traceOut  string // Path for the JSON step trace dump
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tcprl-sim",
	Short: "Discrete-event simulator bridging TCP congestion control to an RL agent",
}

// runCmd executes a scenario using parameters from CLI flags or a yaml file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a congestion-control scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := scenarioFromFlags()
		if scenarioPath != "" {
			cfg, err = LoadScenarioConfig(scenarioPath)
			if err != nil {
				logrus.Fatalf("unable to read scenario config: %v", err)
			}
		}

		logrus.Infof("Starting scenario: %d flows over %.1f Mbps / %.1f ms bottleneck, agent=%s, policy=%s",
			len(cfg.Flows), cfg.Link.RateMbps, cfg.Link.DelayMs, cfg.Agent.Kind, cfg.Policy)

		runScenario(cfg)
	},
}

// scenarioFromFlags assembles a ScenarioConfig from the ad-hoc flags.
func scenarioFromFlags() *ScenarioConfig {
	cfg := DefaultScenarioConfig()
	cfg.HorizonMs = horizonMs
	cfg.Link = LinkSpec{
		RateMbps:     rateMbps,
		DelayMs:      delayMs,
		QueueLimit:   queueLimit,
		EcnThreshold: ecnThreshold,
	}
	cfg.Agent = AgentSpec{Kind: agentKind, WsURL: wsURL}
	cfg.Policy = policy
	cfg.Flows = make([]FlowSpec, numFlows)
	for i := range cfg.Flows {
		cfg.Flows[i] = FlowSpec{
			ID:         fmt.Sprintf("flow-%d", i),
			TransferMB: transferMB,
			Ecn:        ecnEnabled,
		}
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid flags: %v", err)
	}
	return cfg
}

// buildChannel constructs the agent channel selected by the scenario.
// The caller must Close a websocket channel after the run.
func buildChannel(cfg *ScenarioConfig) agent.Channel {
	switch cfg.Agent.Kind {
	case "unchanged":
		return agent.Unchanged()
	case "ws":
		ch, err := agent.DialWS(cfg.Agent.WsURL)
		if err != nil {
			logrus.Fatalf("unable to reach agent: %v", err)
		}
		return ch
	default:
		return agent.AIMD()
	}
}

func buildPolicy(cfg *ScenarioConfig) bridge.RewardPolicy {
	if cfg.Policy == "fixed" {
		return bridge.NewFixedPolicy()
	}
	return bridge.NewEcnAwarePolicy()
}

func runScenario(cfg *ScenarioConfig) {
	s := sim.NewSimulator(int64(cfg.HorizonMs * 1000))
	st := trace.NewStepTrace()
	channel := buildChannel(cfg)
	rewardPolicy := buildPolicy(cfg)
	rng := rand.New(rand.NewSource(seed))

	// shared bottleneck: the dumbbell's single congested link
	link := sim.NewLink(sim.LinkConfig{
		RateMbps:     cfg.Link.RateMbps,
		DelayMs:      cfg.Link.DelayMs,
		QueueLimit:   cfg.Link.QueueLimit,
		EcnThreshold: cfg.Link.EcnThreshold,
	})

	// receiver side of the dumbbell
	s.Topology.AddNode()

	for _, fc := range cfg.Flows {
		node := s.Topology.AddNode()
		br := bridge.New(bridge.Config{
			Topology: s.Topology,
			Clock:    s,
			Channel:  channel,
			Policy:   rewardPolicy,
			Trace:    st,
		})
		sock := node.NewSocket(br, fc.Ecn)
		flow := sim.NewFlow(sim.FlowConfig{
			ID:            fc.ID,
			TransferBytes: uint64(fc.TransferMB * 1e6),
		}, sock, link)

		start := int64(fc.StartMs * 1000)
		if startJitterMs > 0 {
			start += int64(rng.Float64() * startJitterMs * 1000)
		}
		s.AddFlow(flow, start)
	}

	s.Run()

	summary := trace.Summarize(st)
	fmt.Printf("Run %s\n", st.RunID)
	fmt.Printf("  agent steps: %d (threshold %d, growth %d) across %d connections\n",
		summary.TotalSteps,
		summary.HookCounts[trace.HookThresholdQuery],
		summary.HookCounts[trace.HookWindowIncrease],
		summary.Connections)
	fmt.Printf("  reward: mean %.3f, min %.3f, max %.3f\n",
		summary.MeanReward, summary.MinReward, summary.MaxReward)
	for _, f := range s.Flows {
		done, at := f.Done()
		if done {
			secs := float64(at) / 1e6
			fmt.Printf("  %s: %d bytes acked, completed at %.3fs (%.2f Mbps)\n",
				f.ID, f.BytesAcked(), secs, float64(f.BytesAcked())*8/secs/1e6)
		} else {
			fmt.Printf("  %s: %d bytes acked, still running at horizon\n", f.ID, f.BytesAcked())
		}
	}

	if traceOut != "" {
		if err := st.WriteFile(traceOut); err != nil {
			logrus.Fatalf("unable to write trace: %v", err)
		}
		logrus.Infof("step trace written to %s", traceOut)
	}

	if closer, ok := channel.(*agent.WSChannel); ok {
		if err := closer.Close(); err != nil {
			logrus.Warnf("closing agent channel: %v", err)
		}
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a yaml scenario file (overrides the ad-hoc flags)")
	runCmd.Flags().Float64Var(&horizonMs, "horizon-ms", 10_000, "Total simulation horizon (ms)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for flow start jitter")
	runCmd.Flags().Float64Var(&startJitterMs, "start-jitter-ms", 0, "Max random offset added to each flow start (ms)")

	// bottleneck and flows
	runCmd.Flags().Float64Var(&rateMbps, "rate-mbps", 10, "Bottleneck serialization rate (Mbps)")
	runCmd.Flags().Float64Var(&delayMs, "delay-ms", 10, "One-way propagation delay (ms)")
	runCmd.Flags().IntVar(&queueLimit, "queue-limit", 100, "Bottleneck queue capacity (packets)")
	runCmd.Flags().IntVar(&ecnThreshold, "ecn-threshold", 30, "Queue depth at which CE marking starts (0 = off)")
	runCmd.Flags().IntVar(&numFlows, "flows", 1, "Number of flows sharing the bottleneck")
	runCmd.Flags().Float64Var(&transferMB, "transfer-mb", 2, "Bytes each flow delivers, in MB (0 = until horizon)")
	runCmd.Flags().BoolVar(&ecnEnabled, "ecn", true, "Negotiate ECN on each connection")

	// agent and reward
	runCmd.Flags().StringVar(&agentKind, "agent", "aimd", "Decision agent (unchanged, aimd, ws)")
	runCmd.Flags().StringVar(&wsURL, "ws-url", "", "Agent endpoint for --agent ws, e.g. ws://127.0.0.1:5555/agent")
	runCmd.Flags().StringVar(&policy, "policy", "ecn-aware", "Reward policy (ecn-aware, fixed)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the JSON step trace to this path")

	rootCmd.AddCommand(runCmd)
}
