package bus

// Cloner is implemented by message types that can produce an independent
// copy of themselves. Envelopes around a Cloner are safe to deliver to
// more than one receiver without the receivers observing each other's
// mutations.
type Cloner interface {
	Clone() any
}

// Shared is implemented by message types that are already safe to hand to
// multiple receivers without cloning (e.g. immutable value types, or
// types that internally synchronize access).
type Shared interface {
	IsShared() bool
}

// Envelope wraps a boxed message value together with the TypeTag it was
// sent under and the capability flags computed once at construction.
type Envelope struct {
	tag     TypeTag
	value   any
	cloneOK bool
	shared  bool
}

// NewEnvelope boxes v under its own TypeTag.
func NewEnvelope[T any](v T) Envelope {
	e := Envelope{tag: TypeTagOf[T](), value: v}
	if _, ok := any(v).(Cloner); ok {
		e.cloneOK = true
	}
	if s, ok := any(v).(Shared); ok {
		e.shared = s.IsShared()
	}
	return e
}

// Tag returns the envelope's message type tag.
func (e Envelope) Tag() TypeTag { return e.tag }

// Value returns the boxed message value without requiring the caller to
// know its concrete type, for callers (relays, diagnostics) that only
// ever operate on `any`.
func (e Envelope) Value() any { return e.value }

// Cloneable reports whether the boxed value implements Cloner.
func (e Envelope) Cloneable() bool { return e.cloneOK }

// Shared reports whether the boxed value is safe to share across
// receivers without cloning.
func (e Envelope) Shared() bool { return e.shared }

// Clone returns a cloned envelope when the boxed value supports it, and
// the original envelope unchanged otherwise.
func (e Envelope) Clone() Envelope {
	if !e.cloneOK {
		return e
	}
	cloned := e.value.(Cloner).Clone()
	return Envelope{tag: e.tag, value: cloned, cloneOK: e.cloneOK, shared: e.shared}
}

// Downcast attempts to recover the concrete T boxed in e. Unlike the Rust
// original this never consumes e on mismatch: Go values have no move
// semantics, so the caller always gets e back inside the error.
func Downcast[T any](e Envelope) (T, error) {
	var zero T
	want := TypeTagOf[T]()
	if e.tag != want {
		return zero, &Error{Kind: WrongMessageType, Message: e, Err: errTagMismatch(want, e.tag)}
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, &Error{Kind: WrongMessageType, Message: e, Err: errTagMismatch(want, e.tag)}
	}
	return v, nil
}

func errTagMismatch(want, got TypeTag) error {
	return &tagMismatchError{want: want, got: got}
}

type tagMismatchError struct {
	want, got TypeTag
}

func (e *tagMismatchError) Error() string {
	return "bus: expected message tagged " + string(e.want) + ", got " + string(e.got)
}
