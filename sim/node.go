package sim

// Packet is a transport segment (or an acknowledgment) moving through
// the simulated network.
type Packet struct {
	Seq        uint32 // segment sequence number, in segment units
	Size       uint32 // bytes
	SendTime   int64  // tick at which the segment entered the network
	CE         bool   // congestion-experienced mark set by the bottleneck
	Retransmit bool
}

// PacketTrace is the signature of per-packet Tx/Rx trace callbacks
// registered on a socket.
type PacketTrace func(pkt *Packet, sock *Socket)

// Socket is a transport endpoint owned by a node. It holds the
// connection control block and the congestion-control module driving
// it.
type Socket struct {
	node     *Node
	State    *ConnectionState
	Ops      CongestionOps
	txTraces []PacketTrace
	rxTraces []PacketTrace
}

// Node returns the owning node.
func (s *Socket) Node() *Node { return s.node }

// TraceTx registers a callback invoked for every transmitted packet.
func (s *Socket) TraceTx(cb PacketTrace) { s.txTraces = append(s.txTraces, cb) }

// TraceRx registers a callback invoked for every received packet.
func (s *Socket) TraceRx(cb PacketTrace) { s.rxTraces = append(s.rxTraces, cb) }

func (s *Socket) notifyTx(pkt *Packet) {
	for _, cb := range s.txTraces {
		cb(pkt, s)
	}
}

func (s *Socket) notifyRx(pkt *Packet) {
	for _, cb := range s.rxTraces {
		cb(pkt, s)
	}
}

// TCPStack holds the sockets of one node.
type TCPStack struct {
	sockets []*Socket
}

// Sockets returns the node's socket list in creation order.
func (t *TCPStack) Sockets() []*Socket { return t.sockets }

// Node is a simulated host.
type Node struct {
	ID  uint32
	TCP *TCPStack
}

// NewSocket creates a socket on the node with a default control block
// and the given congestion-control module.
func (n *Node) NewSocket(ops CongestionOps, ecnEnabled bool) *Socket {
	sock := &Socket{
		node:  n,
		State: NewConnectionState(ecnEnabled),
		Ops:   ops,
	}
	n.TCP.sockets = append(n.TCP.sockets, sock)
	return sock
}

// Topology is the set of simulated nodes. Node order is stable: nodes
// enumerate in creation order, which makes the one-shot connection
// scan deterministic.
type Topology struct {
	nodes []*Node
}

// NewTopology returns an empty topology.
func NewTopology() *Topology { return &Topology{} }

// AddNode creates a node with the next sequential id.
func (t *Topology) AddNode() *Node {
	node := &Node{
		ID:  uint32(len(t.nodes)),
		TCP: &TCPStack{},
	}
	t.nodes = append(t.nodes, node)
	return node
}

// Nodes returns all nodes in creation order.
func (t *Topology) Nodes() []*Node { return t.nodes }
