// Package bus implements an in-process, type-safe publish/subscribe and
// request/response message dispatch engine.
//
// A [Bus] holds a registry of receivers. Each receiver wraps a handler
// strategy (see [SendTypedReceiver], [ReceiveTypedReceiver] and friends)
// behind a uniform, erased [ReceiverTrait] so the bus can dispatch to it
// without knowing its concrete message, result or error types.
//
// # Type tags
//
// Every message type is identified at runtime by a [TypeTag], derived once
// via [TypeTagOf] and cached. Receivers declare which tags they accept;
// the bus routes a [Envelope] to every receiver whose Accept returns true.
//
// # Admission control
//
// Each receiver carries a [receiverContext] with an atomic in-flight
// counter bounded by a configured limit. Callers acquire a [Permit] before
// a message is considered delivered; a receiver that is at capacity
// refuses new permits until one of the in-flight messages completes.
//
// # Waiting for a response
//
// Request/response calls register a waiter in the receiver's waiter slab
// before sending, then block on it. The receiver's poll loop resolves the
// waiter when the handler's [Event] stream produces a matching response.
//
// # Basic usage
//
//	b := bus.New()
//	r := bus.NewReceiver[Greeting, Reply, error]("greeter", pool.New(func(ctx context.Context, m Greeting) (Reply, error) {
//		return Reply{Text: "hello, " + m.Name}, nil
//	}))
//	b.Register(r)
//	go func() { _ = b.Run(ctx) }() // starts all poll loops, blocks until ctx is done
//
//	reply, err := bus.Request[Greeting, Reply](ctx, b, Greeting{Name: "ada"})
package bus
