// Package pool provides the one concrete handler strategy this module
// ships: an unordered, buffered worker pool. It exists so the core bus
// protocol has at least one real exerciser; production receivers are
// expected to bring their own strategy.
package pool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/typedbus/core/bus"
)

// HandlerFunc executes one accepted message, producing a result or an
// error.
type HandlerFunc[M any, R any] func(ctx context.Context, m M) (R, error)

type job[M any] struct {
	mid uint64
	msg M
}

// Pool is a fixed-concurrency, buffered-queue handler strategy grounded
// on core/queue.Worker's semaphore pattern: a bounded channel feeds a
// fixed number of goroutines, each executing the handler and publishing
// its outcome as a bus.Event the poller can pick up.
type Pool[M any, R any] struct {
	handler HandlerFunc[M, R]
	jobs    chan job[M]
	events  chan bus.Event
	sem     chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	stopCh    chan struct{}

	queued atomic.Int64
}

// Option configures a Pool built by New.
type Option[M any, R any] func(*Pool[M, R])

// WithQueueCapacity sets the buffered channel's capacity (default 64).
func WithQueueCapacity[M any, R any](n int) Option[M, R] {
	return func(p *Pool[M, R]) { p.jobs = make(chan job[M], n) }
}

// WithConcurrency sets the number of worker goroutines (default 1).
func WithConcurrency[M any, R any](n int) Option[M, R] {
	return func(p *Pool[M, R]) { p.sem = make(chan struct{}, n) }
}

// WithLogger overrides the pool's logger.
func WithLogger[M any, R any](l *slog.Logger) Option[M, R] {
	return func(p *Pool[M, R]) { p.logger = l }
}

// New builds a Pool around handler and starts its worker goroutines.
func New[M any, R any](handler HandlerFunc[M, R], opts ...Option[M, R]) *Pool[M, R] {
	p := &Pool[M, R]{
		handler: handler,
		jobs:    make(chan job[M], 64),
		events:  make(chan bus.Event, 64),
		sem:     make(chan struct{}, 1),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	capacity := cap(p.sem)
	for range make([]struct{}, capacity) {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Send implements bus.SendTypedReceiver[M]. It returns an error
// immediately if the queue is full rather than blocking, matching the
// "never silently discard" requirement: a full queue is the caller's
// signal to back off, not a dropped message.
func (p *Pool[M, R]) Send(ctx context.Context, mid uint64, m M) error {
	if p.closed.Load() {
		return bus.ErrReceiverClosed
	}
	select {
	case p.jobs <- job[M]{mid: mid, msg: m}:
		p.queued.Add(1)
		return nil
	default:
		return fmt.Errorf("pool: queue full: %w", bus.ErrPermitExhausted)
	}
}

func (p *Pool[M, R]) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.queued.Add(-1)
		p.runOne(j)
	}
}

func (p *Pool[M, R]) runOne(j job[M]) {
	ctx := context.Background()
	var ev bus.Event
	func() {
		defer func() {
			if r := recover(); r != nil {
				ev = bus.Event{Kind: bus.EventResponse, MID: j.mid, Err: fmt.Errorf("pool: handler panicked: %v", r)}
			}
		}()
		result, err := p.handler(ctx, j.msg)
		ev = bus.Event{Kind: bus.EventResponse, MID: j.mid, Response: result, Err: err}
	}()

	select {
	case p.events <- ev:
	case <-p.stopCh:
	}
}

// PollEvents implements bus.ReceiveUntypedReceiver.
func (p *Pool[M, R]) PollEvents(ctx context.Context) (bus.Event, error) {
	select {
	case ev := <-p.events:
		return ev, nil
	case <-ctx.Done():
		return bus.Event{}, ctx.Err()
	case <-p.stopCh:
		return bus.Event{Kind: bus.EventExited}, nil
	}
}

// Stats implements bus.ReceiveUntypedReceiver.
func (p *Pool[M, R]) Stats() bus.Stats {
	return bus.Stats{
		HasQueue:      true,
		QueueSize:     int(p.queued.Load()),
		QueueCapacity: cap(p.jobs),
		HasParallel:   true,
		Parallel:      cap(p.sem),
	}
}

// HandleAction implements bus.Controllable.
func (p *Pool[M, R]) HandleAction(ctx context.Context, a bus.Action) error {
	switch a {
	case bus.ActionInit:
		select {
		case p.events <- bus.Event{Kind: bus.EventReady}:
		case <-ctx.Done():
			return ctx.Err()
		}
	case bus.ActionFlush:
		select {
		case p.events <- bus.Event{Kind: bus.EventFlushed}:
		case <-ctx.Done():
			return ctx.Err()
		}
	case bus.ActionSync:
		select {
		case p.events <- bus.Event{Kind: bus.EventSynchronized}:
		case <-ctx.Done():
			return ctx.Err()
		}
	case bus.ActionClose:
		p.closeOnce.Do(func() {
			p.closed.Store(true)
			close(p.jobs)
			go func() {
				p.wg.Wait()
				close(p.stopCh)
			}()
		})
	case bus.ActionStats:
		select {
		case p.events <- bus.Event{Kind: bus.EventStats, Stats: p.Stats()}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
