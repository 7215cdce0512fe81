package imap

import "sync"

// NetMon estimates read bandwidth on a Transport, ported from the
// teacher's imapsync/netmon.go. It observes Transport.Read calls
// directly rather than wrapping an io.Reader, since the Transport
// already does its own deadline bookkeeping per read.
type NetMon struct {
	lock     sync.Mutex
	bucket   int
	estimate float64
}

func newNetmonReader() *NetMon {
	return &NetMon{}
}

func (n *NetMon) observe(nbytes int) {
	n.lock.Lock()
	n.bucket += nbytes
	n.lock.Unlock()
}

// Tick folds the current interval's byte count into the running
// exponential estimate and resets the bucket. Callers invoke this
// roughly once per second.
func (n *NetMon) Tick() {
	const alpha = 0.9
	n.lock.Lock()
	n.estimate = alpha*float64(n.bucket) + (1-alpha)*n.estimate
	n.bucket = 0
	n.lock.Unlock()
}

// Bandwidth returns the current bytes/second estimate.
func (n *NetMon) Bandwidth() float64 {
	n.lock.Lock()
	val := n.estimate
	n.lock.Unlock()
	return val
}

// Netmon exposes the transport's bandwidth estimator, or nil if
// EnableNetmon was never called.
func (t *Transport) Netmon() *NetMon {
	return t.netmon
}
