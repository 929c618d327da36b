package bridge

import (
	"github.com/sirupsen/logrus"
)

// ensureBound runs the one-shot connection binder on the first hook
// invocation. Binding is irreversible for the instance's lifetime.
func (b *Bridge) ensureBound() {
	if b.bound {
		return
	}
	b.bind()
}

// bind scans every socket on every node for the one whose
// congestion-control module is this exact bridge instance, records its
// owning node, and attaches the Tx/Rx trace callbacks. Selection is by
// identity, never by attribute similarity, so two bridges on the same
// node can never cross-assign. Node order is stable (creation order),
// and the scan runs once per connection.
//
// Failing to find a match means the bridge was constructed without
// ever being installed on a socket: a wiring bug, not a runtime
// condition, and fatal by contract.
func (b *Bridge) bind() {
	for _, node := range b.topo.Nodes() {
		for _, sock := range node.TCP.Sockets() {
			owner, ok := sock.Ops.(*Bridge)
			if !ok || owner != b {
				continue
			}
			b.sock = sock
			b.nodeID = node.ID
			break
		}
		if b.sock != nil {
			break
		}
	}

	if b.sock == nil {
		logrus.Fatalf("bridge %d: no socket owns this congestion control module; wiring bug", b.connID)
	}

	b.sock.TraceTx(b.onTxPacket)
	b.sock.TraceRx(b.onRxPacket)
	b.bound = true
	logrus.Debugf("bridge %d: bound to node %d", b.connID, b.nodeID)
}
