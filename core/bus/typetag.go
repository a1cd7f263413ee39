package bus

import (
	"reflect"
	"sync"
)

// TypeTag is the stable runtime identity of a message, result or error
// type. Two TypeTag values compare equal iff they were derived from the
// same Go type, including matching type parameters for generic
// instantiations (e.g. "bus_test.Msg[int16]" differs from
// "bus_test.Msg[int32]").
type TypeTag string

// String returns the tag's textual form.
func (t TypeTag) String() string { return string(t) }

var tagCache sync.Map // reflect.Type -> TypeTag

// TypeTagOf derives the TypeTag for T. The result is cached per process:
// repeated calls for the same T return the same string without
// re-deriving it through reflection.
func TypeTagOf[T any]() TypeTag {
	rt := reflect.TypeFor[T]()
	if v, ok := tagCache.Load(rt); ok {
		return v.(TypeTag)
	}
	tag := TypeTag(rt.String())
	actual, _ := tagCache.LoadOrStore(rt, tag)
	return actual.(TypeTag)
}

// TypeTagAccept is implemented by anything that can report which message
// types it accepts, without requiring the caller to know those types
// ahead of time.
type TypeTagAccept interface {
	// Accept reports whether this receiver handles messages tagged tag.
	Accept(tag TypeTag) bool

	// IterTypes returns every TypeTag this receiver accepts.
	IterTypes() []TypeTag
}
