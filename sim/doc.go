// Package sim provides the discrete-event simulation engine and the
// simplified transport collaborator for the RL congestion-control
// bridge.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - connection.go: the connection control block and its enums
//   - event.go: event types that drive the simulation (flow start, packet
//     departure/arrival, ack, retransmission timeout)
//   - simulator.go: the event loop and clock
//
// # Architecture
//
// The sim package defines the hook contract and the transport model;
// the decision-making pieces live in sub-packages:
//   - sim/bridge/: per-connection bridge between the congestion-control
//     hooks and an external agent (binding, classification, observation
//     encoding, reward policies)
//   - sim/agent/: the synchronous observation/decision channel and its
//     implementations (in-process policies, websocket client)
//   - sim/trace/: step-trace recording of agent round-trips
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - CongestionOps: the five congestion-control hooks invoked by the
//     transport layer (flow.go)
//   - agent.Channel: one blocking observation+reward → decision round
//     trip per congestion event
//   - bridge.RewardPolicy: per-variant reward computation
//
// Scheduling is single-threaded and cooperative: hooks run on the
// event-processing goroutine, and the clock does not advance while a
// hook (including its blocking agent round-trip) is in progress.
package sim
