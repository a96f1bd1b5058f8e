package usecase

import "sync/atomic"

// Gate is the sole concurrency-control primitive in the system: a binary
// flag keeping pipeline runs mutually exclusive. The store's batch insert
// and the enrichment subprocess's temp files both assume a single writer.
type Gate struct {
	running atomic.Bool
}

// NewGate returns a cleared gate.
func NewGate() *Gate {
	return &Gate{}
}

// TryAcquire atomically sets the flag and reports whether it was clear.
// Callers that lose the race report busy rather than queueing.
func (g *Gate) TryAcquire() bool {
	return g.running.CompareAndSwap(false, true)
}

// Release clears the flag unconditionally; it runs whether or not the
// guarded work succeeded.
func (g *Gate) Release() {
	g.running.Store(false)
}

// Busy reports whether a run currently holds the gate.
func (g *Gate) Busy() bool {
	return g.running.Load()
}
