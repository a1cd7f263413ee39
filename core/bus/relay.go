package bus

import (
	"context"
	"io"
	"log/slog"
)

// Relay forwards envelopes to a remote sink and translates whatever
// comes back into local Events. A Relay is adapted into a ReceiverTrait
// by relayWrapper so it can be registered on a Bus exactly like any
// in-process receiver, fulfilling the relay-forwarding contract without
// the core needing to know anything about the transport underneath it.
type Relay interface {
	TypeTagAccept

	// Forward sends env to the remote sink, returning an error if the
	// relay's own outbound channel is saturated or closed.
	Forward(ctx context.Context, mid uint64, env Envelope) error

	// PollRemote blocks for the relay's next inbound Event (a response,
	// or a lifecycle signal forwarded back from the remote side).
	PollRemote(ctx context.Context) (Event, error)

	Stats() Stats
}

// relayWrapper adapts a Relay into ReceiverTrait, reusing the same
// admission context, waiter slab and poll loop machinery every in-process
// receiver uses.
type relayWrapper struct {
	name    string
	relay   Relay
	rc      *receiverContext
	waiters *waiterSlab
	logger  *slog.Logger
}

// NewRelayReceiver adapts relay into a ReceiverTrait named name.
func NewRelayReceiver(name string, relay Relay, opts ...ReceiverOption) ReceiverTrait {
	options := &receiverOptions{
		limit:  1,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}
	return &relayWrapper{
		name:    name,
		relay:   relay,
		rc:      newReceiverContext(options.limit),
		waiters: newWaiterSlab(),
		logger:  options.logger,
	}
}

func (w *relayWrapper) Name() string               { return w.name }
func (w *relayWrapper) Accept(tag TypeTag) bool     { return w.relay.Accept(tag) }
func (w *relayWrapper) IterTypes() []TypeTag        { return w.relay.IterTypes() }
func (w *relayWrapper) Stats() Stats {
	s := w.relay.Stats()
	s.Processing = w.rc.Processing()
	s.Limit = w.rc.Limit()
	return s
}

func (w *relayWrapper) SendBoxed(ctx context.Context, mid uint64, env Envelope) error {
	return w.relay.Forward(ctx, mid, env)
}

func (w *relayWrapper) SendAction(ctx context.Context, a Action) error {
	// Relays have no local lifecycle actions to forward by default; a
	// concrete Relay that needs to propagate e.g. Close to the remote
	// side can still observe it by implementing Controllable itself.
	if c, ok := w.relay.(Controllable); ok {
		return c.HandleAction(ctx, a)
	}
	return nil
}

func (w *relayWrapper) AddResponseListener(wt *waiter) (uint64, error) {
	if w.rc.Closed() {
		return 0, &Error{Kind: AddListenerError, Err: ErrReceiverClosed}
	}
	return w.waiters.insert(wt), nil
}

func (w *relayWrapper) CancelResponseListener(id uint64) { w.waiters.cancel(id) }

func (w *relayWrapper) TryReserve() (*Permit, error)                      { return TryReserve(w.rc) }
func (w *relayWrapper) ReserveNotify(ctx context.Context) (*Permit, error) { return ReserveNotify(ctx, w.rc) }

func (w *relayWrapper) FlushedNotify() *broadcastNotify      { return w.rc.flushedNotify }
func (w *relayWrapper) SynchronizedNotify() *broadcastNotify { return w.rc.synchronizedNotify }
func (w *relayWrapper) ClosedNotify() *broadcastNotify       { return w.rc.closedNotify }
func (w *relayWrapper) ReadyNotify() *broadcastNotify        { return w.rc.readyNotify }

func (w *relayWrapper) Ready() bool  { return w.rc.Ready() }
func (w *relayWrapper) Closed() bool { return w.rc.Closed() }

func (w *relayWrapper) StartPolling(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runPollLoop(ctx, w.name, w.rc, w.waiters, relayPoller{w.relay}, w.logger)
	}()
	return done
}

// relayPoller adapts Relay's PollRemote to ReceiveUntypedReceiver so it
// can be driven by the shared runPollLoop.
type relayPoller struct{ r Relay }

func (p relayPoller) PollEvents(ctx context.Context) (Event, error) { return p.r.PollRemote(ctx) }
func (p relayPoller) Stats() Stats                                  { return p.r.Stats() }
