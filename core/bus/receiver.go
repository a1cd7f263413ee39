package bus

import (
	"context"
	"io"
	"log/slog"
)

// ReceiverTrait is the erased interface every receiver wrapper presents
// to the Bus and to AnyReceiver/AnyWrapperRef, regardless of the
// concrete message/result/error types its strategy was built with.
type ReceiverTrait interface {
	TypeTagAccept

	Name() string

	SendBoxed(ctx context.Context, mid uint64, env Envelope) error
	SendAction(ctx context.Context, a Action) error

	AddResponseListener(w *waiter) (id uint64, err error)
	CancelResponseListener(id uint64)

	TryReserve() (*Permit, error)
	ReserveNotify(ctx context.Context) (*Permit, error)

	FlushedNotify() *broadcastNotify
	SynchronizedNotify() *broadcastNotify
	ClosedNotify() *broadcastNotify
	ReadyNotify() *broadcastNotify

	Ready() bool
	Closed() bool
	Stats() Stats

	StartPolling(ctx context.Context) <-chan struct{}
}

// receiverWrapper erases a generic strategy S, accepting message type M
// and producing result R / error E, behind ReceiverTrait. It owns the
// receiver's admission context and waiter slab; the strategy itself only
// knows how to accept and execute messages.
type receiverWrapper[M any, R any, E any, S any] struct {
	name     string
	strategy S
	sender   SendTypedReceiver[M]
	receiver ReceiveUntypedReceiver
	rc       *receiverContext
	waiters  *waiterSlab
	logger   *slog.Logger
}

// receiverOptions configures a receiverWrapper. Mirrors the teacher's
// functional-options pattern used throughout core/queue and core/event.
type receiverOptions struct {
	limit  uint64
	logger *slog.Logger
}

// ReceiverOption configures a wrapper built by NewReceiver.
type ReceiverOption func(*receiverOptions)

// WithLimit sets the receiver's admission-control concurrency bound.
func WithLimit(limit uint64) ReceiverOption {
	return func(o *receiverOptions) { o.limit = limit }
}

// WithReceiverLogger overrides the receiver's logger.
func WithReceiverLogger(l *slog.Logger) ReceiverOption {
	return func(o *receiverOptions) { o.logger = l }
}

// NewReceiver builds a ReceiverTrait named name around a strategy value
// that implements SendTypedReceiver[M] and ReceiveUntypedReceiver.
func NewReceiver[M any, R any, E any, S interface {
	SendTypedReceiver[M]
	ReceiveUntypedReceiver
}](name string, strategy S, opts ...ReceiverOption) ReceiverTrait {
	options := &receiverOptions{
		limit:  1,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &receiverWrapper[M, R, E, S]{
		name:     name,
		strategy: strategy,
		sender:   strategy,
		receiver: strategy,
		rc:       newReceiverContext(options.limit),
		waiters:  newWaiterSlab(),
		logger:   options.logger,
	}
}

func (w *receiverWrapper[M, R, E, S]) Name() string { return w.name }

func (w *receiverWrapper[M, R, E, S]) Accept(tag TypeTag) bool {
	return tag == TypeTagOf[M]()
}

func (w *receiverWrapper[M, R, E, S]) IterTypes() []TypeTag {
	return []TypeTag{TypeTagOf[M]()}
}

func (w *receiverWrapper[M, R, E, S]) SendBoxed(ctx context.Context, mid uint64, env Envelope) error {
	m, err := Downcast[M](env)
	if err != nil {
		return err
	}
	return w.sender.Send(ctx, mid, m)
}

func (w *receiverWrapper[M, R, E, S]) SendAction(ctx context.Context, a Action) error {
	if c, ok := any(w.strategy).(Controllable); ok {
		return c.HandleAction(ctx, a)
	}
	return nil
}

func (w *receiverWrapper[M, R, E, S]) AddResponseListener(wt *waiter) (uint64, error) {
	if w.rc.Closed() {
		return 0, &Error{Kind: AddListenerError, Err: ErrReceiverClosed}
	}
	return w.waiters.insert(wt), nil
}

func (w *receiverWrapper[M, R, E, S]) CancelResponseListener(id uint64) {
	w.waiters.cancel(id)
}

func (w *receiverWrapper[M, R, E, S]) TryReserve() (*Permit, error) {
	return TryReserve(w.rc)
}

func (w *receiverWrapper[M, R, E, S]) ReserveNotify(ctx context.Context) (*Permit, error) {
	return ReserveNotify(ctx, w.rc)
}

func (w *receiverWrapper[M, R, E, S]) FlushedNotify() *broadcastNotify      { return w.rc.flushedNotify }
func (w *receiverWrapper[M, R, E, S]) SynchronizedNotify() *broadcastNotify { return w.rc.synchronizedNotify }
func (w *receiverWrapper[M, R, E, S]) ClosedNotify() *broadcastNotify       { return w.rc.closedNotify }
func (w *receiverWrapper[M, R, E, S]) ReadyNotify() *broadcastNotify        { return w.rc.readyNotify }

func (w *receiverWrapper[M, R, E, S]) Ready() bool  { return w.rc.Ready() }
func (w *receiverWrapper[M, R, E, S]) Closed() bool { return w.rc.Closed() }

func (w *receiverWrapper[M, R, E, S]) Stats() Stats {
	s := w.receiver.Stats()
	s.Processing = w.rc.Processing()
	s.Limit = w.rc.Limit()
	return s
}

// StartPolling launches this receiver's event-poll loop (see poller.go)
// and returns a channel that's closed once the loop exits.
func (w *receiverWrapper[M, R, E, S]) StartPolling(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runPollLoop(ctx, w.name, w.rc, w.waiters, w.receiver, w.logger)
	}()
	return done
}
