package bus

import (
	"context"
	"sync/atomic"
)

// Permit is an admission token acquired before a message is considered
// delivered to a receiver. Go has no destructors, so unlike the Rust
// original a Permit is not released automatically when it goes out of
// scope: callers that acquire one and then abandon the send must call
// Drop explicitly. Every bus-owned send path does this for the caller.
type Permit struct {
	ctx   *receiverContext
	fused atomic.Bool
}

func newPermit(ctx *receiverContext) *Permit {
	return &Permit{ctx: ctx}
}

// Drop releases the permit, decrementing the receiver's in-flight
// counter and waking anyone blocked in ReserveNotify. Calling Drop more
// than once is safe; only the first call has an effect.
func (p *Permit) Drop() {
	if p.fused.CompareAndSwap(false, true) {
		p.ctx.finishOne()
	}
}

// fuse marks the permit consumed without decrementing the counter,
// because ownership of the in-flight slot transferred to the poll loop
// (the normal case: the message was queued, and finishOne runs later
// when the handler finishes it).
func (p *Permit) fuse() {
	p.fused.Store(true)
}

// TryReserve attempts to acquire a permit without blocking. It fails
// with ErrPermitExhausted once Processing reaches Limit.
func TryReserve(ctx *receiverContext) (*Permit, error) {
	for {
		cur := ctx.processing.Load()
		if cur >= ctx.limit {
			return nil, ErrPermitExhausted
		}
		if ctx.processing.CompareAndSwap(cur, cur+1) {
			return newPermit(ctx), nil
		}
	}
}

// ReserveNotify blocks until a permit becomes available or ctx is
// cancelled, retrying TryReserve each time the receiver's response
// notify fires (a slot may have freed up).
func ReserveNotify(parent context.Context, rc *receiverContext) (*Permit, error) {
	for {
		p, err := TryReserve(rc)
		if err == nil {
			return p, nil
		}
		armed := rc.responseNotify.armed()
		if err := rc.responseNotify.wait(parent, armed); err != nil {
			return nil, err
		}
	}
}
