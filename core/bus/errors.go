package bus

import "errors"

// ErrKind discriminates the cause of an Error. Go has no default type
// parameters, so a single Error struct with a kind discriminant stands in
// for the teacher-language's per-variant generic error type.
type ErrKind int

const (
	// Other wraps an opaque, receiver-specific failure.
	Other ErrKind = iota
	// SendErrorKind means the receiver could not accept the message
	// (closed, or its queue is full).
	SendErrorKind
	// NoResponse means a request was accepted but no response ever
	// arrived (the receiver exited, or the waiter was abandoned).
	NoResponse
	// NoReceivers means no registered receiver accepts the message's tag.
	NoReceivers
	// AddListenerError means a response waiter could not be registered
	// (the receiver is closed).
	AddListenerError
	// MessageCastError means a boxed value did not match the TypeTag it
	// was filed under.
	MessageCastError
	// Serialization means a relay failed to encode or decode a message
	// crossing a process boundary.
	Serialization
	// WrongMessageType means Downcast was called against the wrong T.
	WrongMessageType
)

func (k ErrKind) String() string {
	switch k {
	case SendErrorKind:
		return "send_error"
	case NoResponse:
		return "no_response"
	case NoReceivers:
		return "no_receivers"
	case AddListenerError:
		return "add_listener_error"
	case MessageCastError:
		return "message_cast_error"
	case Serialization:
		return "serialization"
	case WrongMessageType:
		return "wrong_message_type"
	default:
		return "other"
	}
}

// Error is the bus's unified error envelope. Message carries whatever
// payload is relevant to Kind (the rejected Envelope, the attempted
// TypeTag, ...); Err carries the wrapped underlying cause, if any.
type Error struct {
	Kind    ErrKind
	Message any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "bus: " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "bus: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// widen erases Message/Err into a plain Error with no payload, keeping
// only the Kind and the wrapped cause. Used when a relay forwards a
// typed failure across a transport that can't carry the original payload.
func (e *Error) widen() *Error {
	return &Error{Kind: e.Kind, Err: e.Err}
}

// narrow rebuilds a typed Error around a payload once it has crossed
// back from a relay, re-tagging it for the local receiver.
func (e *Error) narrow(payload any) *Error {
	return &Error{Kind: e.Kind, Message: payload, Err: e.Err}
}

var (
	// ErrNoReceivers is returned when dispatch finds no receiver
	// accepting the message's TypeTag.
	ErrNoReceivers = errors.New("bus: no receivers for message type")

	// ErrNoResponse is returned when a receiver's poll loop exits before
	// resolving a request's waiter, and by Request when the response is
	// not of the requested type.
	ErrNoResponse = errors.New("bus: no response received")

	// ErrReceiverClosed is returned by operations against a receiver that
	// has already completed its close sequence.
	ErrReceiverClosed = errors.New("bus: receiver closed")

	// ErrPermitExhausted is returned by TryReserve when the receiver is
	// already at its processing limit.
	ErrPermitExhausted = errors.New("bus: receiver at capacity")

	// ErrAlreadyRegistered is returned by Bus.Register when a receiver
	// with the same name is already registered.
	ErrAlreadyRegistered = errors.New("bus: receiver already registered")

	// ErrBusAlreadyRunning is returned by Run when called twice.
	ErrBusAlreadyRunning = errors.New("bus: already running")
)
