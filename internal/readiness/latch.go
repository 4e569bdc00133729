package readiness

import "sync"

// Latch is a single-resolution gate. Several producers may race to resolve it
// (the output-marker scanner and the health poller); only the first wins and
// later calls are no-ops. Waiters select on Done.
type Latch struct {
	mu     sync.Mutex
	done   chan struct{}
	source string
}

func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Resolve marks the latch ready, recording which signal won.
func (l *Latch) Resolve(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-l.done:
		return
	default:
	}
	l.source = source
	close(l.done)
}

// Done returns a channel closed once the latch has been resolved.
func (l *Latch) Done() <-chan struct{} { return l.done }

// Resolved reports whether the latch has fired.
func (l *Latch) Resolved() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Source returns the winning signal name, or "" before resolution.
func (l *Latch) Source() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.source
}
