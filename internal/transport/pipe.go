package transport

import "sync"

// End is one side of an in-memory pipe. Text sent on one End is delivered to
// the Receiver attached to the other.
type End struct {
	mu   sync.RWMutex
	recv Receiver
	peer *End
}

// Pipe returns two connected ends.
func Pipe() (*End, *End) {
	a, b := &End{}, &End{}
	a.peer, b.peer = b, a
	return a, b
}

// Attach sets the receiver for text arriving at this end.
func (e *End) Attach(r Receiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recv = r
}

// Detach drops the receiver; sends from the peer fail with ErrUnavailable.
func (e *End) Detach() {
	e.Attach(nil)
}

func (e *End) Send(text string) error {
	e.peer.mu.RLock()
	recv := e.peer.recv
	e.peer.mu.RUnlock()

	if recv == nil {
		return ErrUnavailable
	}
	recv.Deliver(text)
	return nil
}
