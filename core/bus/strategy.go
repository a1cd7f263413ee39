package bus

import "context"

// SendUntypedReceiver is the boxed-message half of the handler-strategy
// protocol: accept an Envelope without knowing its concrete Go type.
// Strategies that only need typed delivery (the common case) embed
// SendTypedReceiver instead; SendUntypedReceiver exists for
// AnyReceiver/relay callers that only ever hold a boxed value.
type SendUntypedReceiver interface {
	TypeTagAccept

	// SendBoxed delivers env, returning an error if the strategy's queue
	// is full or it has been closed. mid identifies the envelope for
	// correlation with a later Event.Response, or 0 if no response is
	// expected.
	SendBoxed(ctx context.Context, mid uint64, env Envelope) error
}

// SendTypedReceiver is the typed half of the handler-strategy protocol: a
// strategy that accepts a specific message type M.
type SendTypedReceiver[M any] interface {
	// Send delivers m, returning an error if the strategy's queue is
	// full or it has been closed.
	Send(ctx context.Context, mid uint64, m M) error
}

// ReceiveTypedReceiver is implemented by a strategy that produces typed
// results R and typed errors E by polling for Events. PollEvents blocks
// until the next Event is available or ctx is done.
type ReceiveTypedReceiver[R any, E any] interface {
	PollEvents(ctx context.Context) (Event, error)
	Stats() Stats
}

// ReceiveUntypedReceiver is the boxed equivalent of ReceiveTypedReceiver,
// used by relays and AnyWrapperRef callers that carry results as `any`
// rather than a concrete R.
type ReceiveUntypedReceiver interface {
	PollEvents(ctx context.Context) (Event, error)
	Stats() Stats
}

// Controllable is implemented by any strategy that accepts lifecycle
// Actions (Init/Flush/Sync/Close/Stats) alongside ordinary messages.
type Controllable interface {
	HandleAction(ctx context.Context, a Action) error
}
