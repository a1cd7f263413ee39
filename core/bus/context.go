package bus

import (
	"context"
	"sync/atomic"
)

// receiverContext is the per-receiver admission and lifecycle state: an
// atomic in-flight counter bounded by limit, plus a set of re-armable
// notifies the poll loop signals as it processes Action/Event pairs.
type receiverContext struct {
	limit      uint64
	processing atomic.Uint64

	needFlush atomic.Bool
	readyFlag atomic.Bool
	initSent  atomic.Bool
	closed    atomic.Bool

	flushedNotify      *broadcastNotify
	synchronizedNotify *broadcastNotify
	closedNotify       *broadcastNotify
	readyNotify        *broadcastNotify
	responseNotify     *broadcastNotify
}

func newReceiverContext(limit uint64) *receiverContext {
	if limit == 0 {
		limit = 1
	}
	return &receiverContext{
		limit:              limit,
		flushedNotify:      newBroadcastNotify(),
		synchronizedNotify: newBroadcastNotify(),
		closedNotify:       newBroadcastNotify(),
		readyNotify:        newBroadcastNotify(),
		responseNotify:     newBroadcastNotify(),
	}
}

// Processing returns the current in-flight message count.
func (c *receiverContext) Processing() uint64 { return c.processing.Load() }

// Limit returns the configured concurrency bound.
func (c *receiverContext) Limit() uint64 { return c.limit }

// Ready reports whether the receiver finished Init and can accept
// messages.
func (c *receiverContext) Ready() bool { return c.readyFlag.Load() }

// Closed reports whether the receiver has completed its close sequence.
func (c *receiverContext) Closed() bool { return c.closed.Load() }

func (c *receiverContext) waitReady(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	armed := c.readyNotify.armed()
	if c.Ready() {
		return nil
	}
	return c.readyNotify.wait(ctx, armed)
}

func (c *receiverContext) waitFlushed(ctx context.Context) error {
	armed := c.flushedNotify.armed()
	return c.flushedNotify.wait(ctx, armed)
}

func (c *receiverContext) waitSynchronized(ctx context.Context) error {
	armed := c.synchronizedNotify.armed()
	return c.synchronizedNotify.wait(ctx, armed)
}

func (c *receiverContext) waitClosed(ctx context.Context) error {
	if c.Closed() {
		return nil
	}
	armed := c.closedNotify.armed()
	if c.Closed() {
		return nil
	}
	return c.closedNotify.wait(ctx, armed)
}

// applyEvent folds an Event's effect on the receiver's lifecycle
// notifies. It does not resolve per-message waiters; the poller does
// that separately via the waiter slab, after this call, preserving the
// processing-decrement-before-notify ordering §4.5 requires.
func (c *receiverContext) applyEvent(ev Event) {
	switch ev.Kind {
	case EventFlushed:
		c.needFlush.Store(false)
		c.flushedNotify.notifyAll()
	case EventSynchronized:
		c.synchronizedNotify.notifyAll()
	case EventReady:
		c.readyFlag.Store(true)
		c.readyNotify.notifyAll()
	case EventPause:
		c.readyFlag.Store(false)
	case EventExited, EventInitFailed:
		c.closed.Store(true)
		c.closedNotify.notifyAll()
		c.readyNotify.notifyAll()
	}
}

// finishOne decrements the in-flight counter and wakes anyone waiting on
// a response. Must be called after the resolving waiter has been
// delivered to, in that order, so a waiter observing the wakeup always
// sees the updated counter.
func (c *receiverContext) finishOne() {
	c.processing.Add(^uint64(0))
	c.responseNotify.notifyAll()
}
