// sim/simulator.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// EventQueue implements heap.Interface and orders events by timestamp.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].Timestamp() < eq[j].Timestamp() }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the core object that holds simulation time, the
// topology, and the event loop. Ticks are microseconds.
//
// The loop is single-threaded and cooperative: events execute one at a
// time, and the clock never advances while an event (including a
// blocking agent round-trip inside a congestion-control hook) is in
// progress.
type Simulator struct {
	Clock   int64
	Horizon int64
	// EventQueue has all the simulator events, like flow start, packet
	// departure/arrival and ack events
	EventQueue EventQueue
	Topology   *Topology
	Flows      []*Flow
}

// NewSimulator creates a simulator that runs until horizon ticks.
func NewSimulator(horizon int64) *Simulator {
	return &Simulator{
		Clock:      0,
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		Topology:   NewTopology(),
	}
}

// Now returns the current simulated time in ticks.
func (sim *Simulator) Now() int64 { return sim.Clock }

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// AddFlow registers a flow and schedules its start event.
func (sim *Simulator) AddFlow(f *Flow, startTime int64) {
	sim.Flows = append(sim.Flows, f)
	sim.Schedule(&FlowStartEvent{time: startTime, Flow: f})
}

// Run drains the event queue until it is empty or the horizon is
// reached.
func (sim *Simulator) Run() {
	for len(sim.EventQueue) > 0 {
		// get the next event to be simulated
		ev := heap.Pop(&sim.EventQueue).(Event)
		// advance the clock
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[tick %07d] Executing %T", sim.Clock, ev)
		// process the event
		ev.Execute(sim)
		// end the simulation if horizon is reached or if we've run out of events
		if sim.Clock > sim.Horizon {
			break
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
}
