package bus

import "reflect"

// AnyReceiver is a type-erased view over a SendTypedReceiver[M] for some
// M unknown to the caller. The Rust original reinterprets a trait
// object's fat pointer via mem::transmute to avoid a second allocation;
// Go has no fat-pointer trait objects to reinterpret, and faking one
// with unsafe.Pointer would be unsound under the Go memory model. This
// follows the fallback the design explicitly allows: hold the already-
// boxed interface value plus a cached reflect.Type token for M, and cast
// by comparing tokens rather than by pointer reinterpretation.
type AnyReceiver struct {
	msgType reflect.Type
	sender  any // SendTypedReceiver[M], boxed
}

// NewAnyReceiver erases a concrete SendTypedReceiver[M].
func NewAnyReceiver[M any](s SendTypedReceiver[M]) AnyReceiver {
	return AnyReceiver{msgType: reflect.TypeFor[M](), sender: s}
}

// MessageType returns the reflect.Type token this receiver was erased
// from, for diagnostics and tag comparison.
func (a AnyReceiver) MessageType() reflect.Type { return a.msgType }

// CastSendTyped recovers a SendTypedReceiver[M2] view if the erased
// receiver was built from exactly M2. ok is false on any mismatch.
func CastSendTyped[M2 any](a AnyReceiver) (SendTypedReceiver[M2], bool) {
	if a.msgType != reflect.TypeFor[M2]() {
		return nil, false
	}
	s, ok := a.sender.(SendTypedReceiver[M2])
	return s, ok
}

// anyWrapperKind discriminates which of the three result/error identities
// an AnyWrapperRef was built from, mirroring the three wrapper traits in
// the original (ret-only, err-only, ret-and-err).
type anyWrapperKind int

const (
	wrapperRetOnly anyWrapperKind = iota
	wrapperErrOnly
	wrapperRetAndErr
)

// AnyWrapperRef is a type-erased view over a ReceiveTypedReceiver[R, E]
// for result/error types unknown to the caller, used by callers that
// only need to register a boxed response waiter (AddResponseWaiterBoxed
// and friends on the public Receiver handle).
type AnyWrapperRef struct {
	kind     anyWrapperKind
	retType  reflect.Type // nil when the wrapper carries no typed result
	errType  reflect.Type // nil when the wrapper carries no typed error
	receiver any          // ReceiveTypedReceiver[R, E], boxed
}

// NewAnyWrapperRefRetOnly erases a receiver whose error channel is
// unused (errors always nil).
func NewAnyWrapperRefRetOnly[R any](r ReceiveTypedReceiver[R, VoidError]) AnyWrapperRef {
	return AnyWrapperRef{kind: wrapperRetOnly, retType: reflect.TypeFor[R](), receiver: r}
}

// NewAnyWrapperRefErrOnly erases a receiver whose result channel is
// unused (results always zero).
func NewAnyWrapperRefErrOnly[E any](r ReceiveTypedReceiver[VoidResult, E]) AnyWrapperRef {
	return AnyWrapperRef{kind: wrapperErrOnly, errType: reflect.TypeFor[E](), receiver: r}
}

// NewAnyWrapperRefRetAndErr erases a receiver with both a typed result
// and a typed error.
func NewAnyWrapperRefRetAndErr[R any, E any](r ReceiveTypedReceiver[R, E]) AnyWrapperRef {
	return AnyWrapperRef{
		kind:     wrapperRetAndErr,
		retType:  reflect.TypeFor[R](),
		errType:  reflect.TypeFor[E](),
		receiver: r,
	}
}

// CastRetAndErr recovers a ReceiveTypedReceiver[R2, E2] view if the
// erased wrapper matches both type tokens exactly.
func CastRetAndErr[R2 any, E2 any](a AnyWrapperRef) (ReceiveTypedReceiver[R2, E2], bool) {
	if a.kind != wrapperRetAndErr {
		return nil, false
	}
	if a.retType != reflect.TypeFor[R2]() || a.errType != reflect.TypeFor[E2]() {
		return nil, false
	}
	r, ok := a.receiver.(ReceiveTypedReceiver[R2, E2])
	return r, ok
}

// VoidError is the empty error payload used by wrappers that never fail
// (the Go analog of the Rust original's VoidError unit type).
type VoidError struct{}

func (VoidError) Error() string { return "" }

// VoidResult is the empty result payload used by wrappers whose handler
// returns no meaningful value.
type VoidResult struct{}
