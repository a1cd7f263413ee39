package bus

import (
	"context"
	"sync"
)

// broadcastNotify is a re-armable wakeup signal modeled on tokio's
// Notify: any number of goroutines can wait on the current generation,
// and a single notifyAll wakes all of them at once without requiring
// waiters to have registered before the call returns (waiters that
// arrive after notifyAll simply wait for the next one).
type broadcastNotify struct {
	mu  sync.Mutex
	ch  chan struct{}
	gen uint64
}

func newBroadcastNotify() *broadcastNotify {
	return &broadcastNotify{ch: make(chan struct{})}
}

// armed returns the channel for the current generation, to be selected
// on by a waiter. Capturing it before checking any associated condition
// avoids the missed-wakeup race: if notifyAll fires between the check
// and the wait, the channel is already closed and the select returns
// immediately.
func (n *broadcastNotify) armed() chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

// wait blocks until the next notifyAll after armed was captured, or ctx
// is done.
func (n *broadcastNotify) wait(ctx context.Context, armed chan struct{}) error {
	select {
	case <-armed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notifyAll wakes every goroutine currently waiting on the armed channel
// and arms a fresh one for subsequent waiters.
func (n *broadcastNotify) notifyAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.gen++
}
