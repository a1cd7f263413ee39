package bus

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Bus holds a registry of receivers and dispatches envelopes to every
// receiver whose Accept matches the envelope's TypeTag.
type Bus struct {
	id     uuid.UUID
	logger *slog.Logger

	mu        sync.RWMutex
	byName    map[string]*Receiver
	receivers []*Receiver

	runMu   sync.Mutex
	running bool
}

// Option configures a Bus built by New.
type Option func(*Bus)

// WithLogger overrides the bus's logger. Defaults to a silent logger,
// matching the teacher's convention for every long-lived component.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// New creates an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		id:     uuid.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		byName: make(map[string]*Receiver),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the bus instance's identifier, used to correlate log lines
// across receivers that share this bus.
func (b *Bus) ID() uuid.UUID { return b.id }

// Register adds trait to the registry under a public Receiver handle and
// returns that handle. Registering two receivers under the same name
// fails with ErrAlreadyRegistered.
func (b *Bus) Register(trait ReceiverTrait) (*Receiver, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byName[trait.Name()]; exists {
		return nil, ErrAlreadyRegistered
	}

	r := NewReceiverHandle(trait)
	b.byName[trait.Name()] = r
	b.receivers = append(b.receivers, r)

	b.logger.Info("receiver registered", slog.String("name", trait.Name()), slog.String("bus_id", b.id.String()))
	return r, nil
}

// Receiver looks up a registered receiver by name.
func (b *Bus) Receiver(name string) (*Receiver, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.byName[name]
	return r, ok
}

// Receivers returns every receiver accepting tag.
func (b *Bus) Receivers(tag TypeTag) []*Receiver {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []*Receiver
	for _, r := range b.receivers {
		if r.Accept(tag) {
			matched = append(matched, r)
		}
	}
	return matched
}

// Send boxes m and delivers it to every receiver accepting M's TypeTag.
// It blocks for admission on each matching receiver in turn; if no
// receiver accepts M, it returns ErrNoReceivers.
func Send[M any](ctx context.Context, b *Bus, m M) error {
	env := NewEnvelope(m)
	targets := b.Receivers(env.Tag())
	if len(targets) == 0 {
		return ErrNoReceivers
	}
	for _, r := range targets {
		if err := r.Send(ctx, env.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Request boxes m, delivers it to the first receiver accepting M's
// TypeTag, and blocks for a typed response.
func Request[M any, R any](ctx context.Context, b *Bus, m M) (R, error) {
	var zero R

	env := NewEnvelope(m)
	targets := b.Receivers(env.Tag())
	if len(targets) == 0 {
		return zero, ErrNoReceivers
	}
	r := targets[0]

	await, mid, err := r.AddResponseWaiter()
	if err != nil {
		return zero, err
	}

	p, err := r.inner.ReserveNotify(ctx)
	if err != nil {
		r.inner.CancelResponseListener(mid)
		return zero, err
	}
	p.fuse()
	if err := r.inner.SendBoxed(ctx, mid, env); err != nil {
		p.ctx.finishOne()
		r.inner.CancelResponseListener(mid)
		return zero, err
	}

	v, err := await(ctx)
	if err != nil {
		return zero, err
	}
	result, ok := v.(R)
	if !ok {
		return zero, ErrNoResponse
	}
	return result, nil
}

// Run starts every registered receiver's poll loop and blocks until ctx
// is done, then waits for every loop to exit. Its func(ctx) error shape
// lets callers fold it into an errgroup-driven lifecycle.
func (b *Bus) Run(ctx context.Context) error {
	b.runMu.Lock()
	if b.running {
		b.runMu.Unlock()
		return ErrBusAlreadyRunning
	}
	b.running = true
	b.runMu.Unlock()

	defer func() {
		b.runMu.Lock()
		b.running = false
		b.runMu.Unlock()
	}()

	b.mu.RLock()
	receivers := append([]*Receiver(nil), b.receivers...)
	b.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range receivers {
		done := r.inner.StartPolling(gctx)
		g.Go(func() error {
			<-done
			return nil
		})
	}

	b.logger.InfoContext(ctx, "bus running", slog.Int("receivers", len(receivers)), slog.String("bus_id", b.id.String()))
	<-gctx.Done()
	return g.Wait()
}

// Close closes every registered receiver, waiting for each to finish.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.RLock()
	receivers := append([]*Receiver(nil), b.receivers...)
	b.mu.RUnlock()

	for _, r := range receivers {
		if err := r.Close(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Healthcheck reports an error if any receiver is at capacity, mirroring
// core/queue.Worker.Healthcheck's overload check.
func (b *Bus) Healthcheck(ctx context.Context) error {
	b.mu.RLock()
	receivers := append([]*Receiver(nil), b.receivers...)
	b.mu.RUnlock()

	for _, r := range receivers {
		s := r.Stats()
		if s.Limit > 0 && s.Processing >= s.Limit {
			return &Error{Kind: Other, Message: r.Name(), Err: ErrPermitExhausted}
		}
	}
	return nil
}
