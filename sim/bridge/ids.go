package bridge

// connCounter is explicit process-wide state for connection id
// assignment. It is zero at process start and only ever increments, so
// ids are unique across all live and historical bridge instances
// within one run and are never reused.
var connCounter uint64

// NextConnID returns the next process-unique connection identifier.
// The first id handed out is 1. Single-goroutine by the scheduling
// model; no locking needed.
func NextConnID() uint64 {
	connCounter++
	return connCounter
}
