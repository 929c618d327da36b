package sim

// LinkConfig groups bottleneck link parameters for NewLink.
type LinkConfig struct {
	RateMbps     float64 // serialization rate (must be > 0)
	DelayMs      float64 // one-way propagation delay
	QueueLimit   int     // drop-tail queue capacity in packets (must be > 0)
	EcnThreshold int     // queue depth at which CE marking starts (0 = ECN off)
}

// FlowConfig groups per-flow parameters for NewFlow.
type FlowConfig struct {
	ID            string
	TransferBytes uint64  // bytes to deliver; 0 = send until horizon
	RtoMs         float64 // retransmission timeout (default 200ms when 0)
}
