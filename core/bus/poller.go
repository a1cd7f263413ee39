package bus

import (
	"context"
	"log/slog"
)

// runPollLoop drives a single receiver's event stream, translating each
// Event into ReceiverContext signals and waiter resolutions per the
// event-poll loop: Response resolves and removes the matching waiter,
// Synchronized/Flushed/Ready/Exited/InitFailed fold into the context's
// broadcast notifies, Stats is left for the caller to read directly via
// Stats(), and Pause clears the context's ready flag.
//
// Panics escaping PollEvents are recovered and turned into a synthetic
// EventExited, mirroring the panic-to-failure conversion in the
// teacher's own task worker loop: a single bad handler must not take
// down the whole poller goroutine silently. When the loop exits, every
// waiter still pending is resolved with a NoResponse error.
func runPollLoop(ctx context.Context, name string, rc *receiverContext, waiters *waiterSlab, recv ReceiveUntypedReceiver, logger *slog.Logger) {
	defer func() {
		waiters.mu.Lock()
		pending := waiters.entries
		waiters.entries = make(map[uint64]*waiter)
		waiters.mu.Unlock()
		noResponse := &Error{Kind: NoResponse, Err: ErrNoResponse}
		for _, w := range pending {
			switch w.kind {
			case waiterWithErrorType, waiterWithoutErrorType:
				w.chTyped <- typedResult{err: noResponse}
			case waiterBoxed, waiterBoxedWithError:
				w.chBoxed <- boxedResult{err: noResponse}
			}
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "receiver poll loop panicked",
				slog.String("receiver", name), slog.Any("panic", r))
			rc.applyEvent(Event{Kind: EventExited, ExitErr: errPanicf(r)})
		}
	}()

	for {
		ev, err := recv.PollEvents(ctx)
		if err != nil {
			logger.DebugContext(ctx, "receiver poll loop stopping",
				slog.String("receiver", name), slog.String("error", err.Error()))
			rc.applyEvent(Event{Kind: EventExited, ExitErr: err})
			return
		}

		switch ev.Kind {
		case EventResponse:
			resolveWaiter(waiters, ev)
			rc.finishOne()
		default:
			rc.applyEvent(ev)
		}

		if ev.Kind == EventExited || ev.Kind == EventInitFailed {
			return
		}
	}
}

func resolveWaiter(waiters *waiterSlab, ev Event) {
	if ev.MID == 0 {
		return
	}
	w, ok := waiters.take(ev.MID)
	if !ok {
		return
	}
	switch w.kind {
	case waiterWithErrorType, waiterWithoutErrorType:
		w.chTyped <- typedResult{value: ev.Response, err: ev.Err}
	case waiterBoxed, waiterBoxedWithError:
		w.chBoxed <- boxedResult{value: ev.Response, err: ev.Err}
	}
}

type panicError struct{ v any }

func (p *panicError) Error() string {
	return "panic: " + errPanicString(p.v)
}

func errPanicf(v any) error { return &panicError{v: v} }

func errPanicString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}
