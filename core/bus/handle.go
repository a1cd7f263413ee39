package bus

import (
	"context"
	"sync/atomic"
)

// Receiver is the public handle callers use to interact with a
// registered receiver: send messages, wait for responses, and drive its
// lifecycle. It wraps the erased ReceiverTrait so callers never see the
// generic receiverWrapper directly.
type Receiver struct {
	inner ReceiverTrait
}

// NewReceiverHandle wraps trait in a public handle. Bus.Register does
// this for every receiver it accepts.
func NewReceiverHandle(trait ReceiverTrait) *Receiver {
	return &Receiver{inner: trait}
}

// Name returns the receiver's registered name.
func (r *Receiver) Name() string { return r.inner.Name() }

// Accept reports whether this receiver handles messages tagged tag.
func (r *Receiver) Accept(tag TypeTag) bool { return r.inner.Accept(tag) }

// IterTypes returns every TypeTag this receiver accepts.
func (r *Receiver) IterTypes() []TypeTag { return r.inner.IterTypes() }

// Stats returns the receiver's current load.
func (r *Receiver) Stats() Stats { return r.inner.Stats() }

// Ready reports whether the receiver has finished Init.
func (r *Receiver) Ready() bool { return r.inner.Ready() }

// Closed reports whether the receiver has completed its close sequence.
func (r *Receiver) Closed() bool { return r.inner.Closed() }

// Send waits for admission: it blocks until a permit is available (or
// ctx is cancelled), fuses the permit, then hands the message off. If
// the strategy rejects the message, the in-flight slot is released.
func (r *Receiver) Send(ctx context.Context, env Envelope) error {
	p, err := r.inner.ReserveNotify(ctx)
	if err != nil {
		return err
	}
	return r.sendWithPermit(ctx, p, env)
}

// ForceSend delivers env without acquiring a permit at all, bypassing
// admission control, so a saturated receiver never blocks it. The
// message is sent with mid 0, so no response waiter is resolved by it.
func (r *Receiver) ForceSend(ctx context.Context, env Envelope) error {
	return r.inner.SendBoxed(ctx, 0, env)
}

// SendBoxed is the non-blocking counterpart to Send: it attempts to
// acquire a permit immediately and fails with ErrPermitExhausted instead
// of waiting.
func (r *Receiver) SendBoxed(ctx context.Context, env Envelope) error {
	p, err := r.inner.TryReserve()
	if err != nil {
		return err
	}
	return r.sendWithPermit(ctx, p, env)
}

func (r *Receiver) sendWithPermit(ctx context.Context, p *Permit, env Envelope) error {
	p.fuse()
	mid := newMessageID()
	if err := r.inner.SendBoxed(ctx, mid, env); err != nil {
		p.ctx.finishOne()
		return err
	}
	return nil
}

// AddResponseWaiter registers a typed waiter expecting both a result and
// an error, returning a function that blocks for the resolved pair.
func (r *Receiver) AddResponseWaiter() (await func(ctx context.Context) (any, error), mid uint64, err error) {
	w := &waiter{kind: waiterWithErrorType, chTyped: make(chan typedResult, 1)}
	mid, err = r.inner.AddResponseListener(w)
	if err != nil {
		return nil, 0, err
	}
	await = func(ctx context.Context) (any, error) {
		select {
		case res := <-w.chTyped:
			return res.value, res.err
		case <-ctx.Done():
			r.inner.CancelResponseListener(mid)
			return nil, ctx.Err()
		}
	}
	return await, mid, nil
}

// AddResponseWaiterWE registers a waiter identical to AddResponseWaiter;
// the name preserves the without-error-channel/with-error-channel
// naming of the four original listener variants even though this Go
// rendition folds them onto one channel shape (the error is simply nil
// when the variant doesn't carry one).
func (r *Receiver) AddResponseWaiterWE() (await func(ctx context.Context) (any, error), mid uint64, err error) {
	return r.AddResponseWaiter()
}

// AddResponseWaiterBoxed registers a boxed waiter for AnyReceiver callers
// that don't know R/E at compile time.
func (r *Receiver) AddResponseWaiterBoxed() (await func(ctx context.Context) (any, error), mid uint64, err error) {
	w := &waiter{kind: waiterBoxed, chBoxed: make(chan boxedResult, 1)}
	mid, err = r.inner.AddResponseListener(w)
	if err != nil {
		return nil, 0, err
	}
	await = func(ctx context.Context) (any, error) {
		select {
		case res := <-w.chBoxed:
			return res.value, res.err
		case <-ctx.Done():
			r.inner.CancelResponseListener(mid)
			return nil, ctx.Err()
		}
	}
	return await, mid, nil
}

// AddResponseWaiterBoxedWE is the boxed-with-error-channel variant.
func (r *Receiver) AddResponseWaiterBoxedWE() (await func(ctx context.Context) (any, error), mid uint64, err error) {
	w := &waiter{kind: waiterBoxedWithError, chBoxed: make(chan boxedResult, 1)}
	mid, err = r.inner.AddResponseListener(w)
	if err != nil {
		return nil, 0, err
	}
	await = func(ctx context.Context) (any, error) {
		select {
		case res := <-w.chBoxed:
			return res.value, res.err
		case <-ctx.Done():
			r.inner.CancelResponseListener(mid)
			return nil, ctx.Err()
		}
	}
	return await, mid, nil
}

// Init sends the Init action and waits for Ready or InitFailed.
func (r *Receiver) Init(ctx context.Context) error {
	if err := r.inner.SendAction(ctx, ActionInit); err != nil {
		return err
	}
	return r.waitReady(ctx)
}

func (r *Receiver) waitReady(ctx context.Context) error {
	if r.inner.Ready() {
		return nil
	}
	armed := r.inner.ReadyNotify().armed()
	if r.inner.Ready() {
		return nil
	}
	return r.inner.ReadyNotify().wait(ctx, armed)
}

// WaitReady blocks until the receiver finishes Init.
func (r *Receiver) WaitReady(ctx context.Context) error { return r.waitReady(ctx) }

// Close sends the Close action and waits for the receiver to finish
// shutting down.
func (r *Receiver) Close(ctx context.Context) error {
	armed := r.inner.ClosedNotify().armed()
	if err := r.inner.SendAction(ctx, ActionClose); err != nil {
		return err
	}
	if r.inner.Closed() {
		return nil
	}
	return r.inner.ClosedNotify().wait(ctx, armed)
}

// Sync sends the Sync action and waits for acknowledgement.
func (r *Receiver) Sync(ctx context.Context) error {
	armed := r.inner.SynchronizedNotify().armed()
	if err := r.inner.SendAction(ctx, ActionSync); err != nil {
		return err
	}
	return r.inner.SynchronizedNotify().wait(ctx, armed)
}

// Flush sends the Flush action and waits for acknowledgement.
func (r *Receiver) Flush(ctx context.Context) error {
	armed := r.inner.FlushedNotify().armed()
	if err := r.inner.SendAction(ctx, ActionFlush); err != nil {
		return err
	}
	return r.inner.FlushedNotify().wait(ctx, armed)
}

var midCounter atomic.Uint64

func newMessageID() uint64 {
	return midCounter.Add(1)
}
