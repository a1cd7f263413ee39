package bus

import "sync"

type waiterKind int

const (
	waiterWithErrorType waiterKind = iota
	waiterWithoutErrorType
	waiterBoxed
	waiterBoxedWithError
)

// waiter is a single tagged union over the four listener variants the
// public Receiver handle can register: a strongly typed result with a
// typed error, a strongly typed result with no error channel, and the
// two boxed (any) equivalents used by AnyReceiver/AnyWrapperRef callers
// that don't know R/E at compile time. Collapsing all four into one
// struct keeps the poller's resolve path a single switch instead of four
// interface types.
type waiter struct {
	kind waiterKind

	// chTyped carries (value, error) for waiterWithErrorType and
	// waiterWithoutErrorType alike; the event's error is passed through
	// for both.
	chTyped chan typedResult

	// chBoxed carries (any, error) for waiterBoxed / waiterBoxedWithError.
	chBoxed chan boxedResult
}

type typedResult struct {
	value any
	err   error
}

type boxedResult struct {
	value any
	err   error
}

// waiterSlab holds pending response waiters keyed by a generation-tagged
// id: the low 32 bits hold the recycled slot index and the bits above
// hold a per-insertion generation counter, so a stale id from a reused
// slot is never mistaken for the live one.
type waiterSlab struct {
	mu      sync.Mutex
	entries map[uint64]*waiter
	free    []uint64
	nextGen uint64
	nextIdx uint64
}

func newWaiterSlab() *waiterSlab {
	return &waiterSlab{entries: make(map[uint64]*waiter)}
}

// insert files w under a fresh id and returns it.
func (s *waiterSlab) insert(w *waiter) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx uint64
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = s.nextIdx
		s.nextIdx++
	}
	s.nextGen++
	// Fold a per-insertion generation into the high bits so an id from a
	// freed, later-reused slot never collides with the id that just
	// vacated it.
	id := idx | (s.nextGen << 32)
	s.entries[id] = w
	return id
}

// take removes and returns the waiter filed under id, if still present.
// A second call for the same id (double resolution, or a stale id from a
// since-cancelled waiter) returns ok=false.
func (s *waiterSlab) take(id uint64) (*waiter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
		s.free = append(s.free, id&0xffffffff)
	}
	return w, ok
}

// cancel drops a waiter the caller is no longer interested in (e.g. its
// context was cancelled before a response arrived) without resolving it.
func (s *waiterSlab) cancel(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		s.free = append(s.free, id&0xffffffff)
	}
}

// len reports the number of currently pending waiters.
func (s *waiterSlab) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
