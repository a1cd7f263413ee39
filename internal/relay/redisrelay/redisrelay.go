// Package redisrelay implements bus.Relay over Redis pub/sub, forwarding
// envelopes to a channel and translating replies published back on a
// response channel into bus.Events. It is a concrete exerciser of the
// relay adapter contract (core/bus/relay.go), not part of the core
// itself.
package redisrelay

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/typedbus/core/bus"
)

// wireMessage is the gob-encoded payload sent over the outbound channel.
type wireMessage struct {
	MID     uint64
	Tag     string
	Payload []byte
}

// wireResponse is the gob-encoded payload received over the inbound
// channel.
type wireResponse struct {
	MID      uint64
	Tag      string
	Response []byte
	ErrMsg   string
}

// Codec encodes/decodes a message's payload for the wire. Callers
// register one codec per message type they relay.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(tag bus.TypeTag, data []byte) (any, error)
}

// Relay forwards envelopes to outboundChannel and reads responses from
// inboundChannel, both on the same Redis instance.
type Relay struct {
	client    *redis.Client
	outbound  string
	inbound   string
	codec     Codec
	acceptTag func(bus.TypeTag) bool
	tags      []bus.TypeTag
	logger    *slog.Logger

	sub    *redis.PubSub
	events chan bus.Event

	closed atomic.Bool
	queued atomic.Int64
}

// Option configures a Relay built by New.
type Option func(*Relay)

// WithLogger overrides the relay's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a Relay that forwards messages tagged with any of tags to
// outboundChannel and listens for responses on inboundChannel.
func New(client *redis.Client, outboundChannel, inboundChannel string, codec Codec, tags []bus.TypeTag, opts ...Option) *Relay {
	accept := make(map[bus.TypeTag]struct{}, len(tags))
	for _, t := range tags {
		accept[t] = struct{}{}
	}

	r := &Relay{
		client:   client,
		outbound: outboundChannel,
		inbound:  inboundChannel,
		codec:    codec,
		tags:     tags,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		events:   make(chan bus.Event, 64),
		acceptTag: func(tag bus.TypeTag) bool {
			_, ok := accept[tag]
			return ok
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start subscribes to the inbound channel and begins translating
// published responses into Events. Must be called before PollRemote is
// used.
func (r *Relay) Start(ctx context.Context) error {
	r.sub = r.client.Subscribe(ctx, r.inbound)
	if _, err := r.sub.Receive(ctx); err != nil {
		return fmt.Errorf("redisrelay: subscribe: %w", err)
	}

	go r.readLoop(ctx)
	return nil
}

func (r *Relay) readLoop(ctx context.Context) {
	ch := r.sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.events <- bus.Event{Kind: bus.EventExited}
				return
			}
			r.handleWire(msg.Payload)
		case <-ctx.Done():
			r.events <- bus.Event{Kind: bus.EventExited, ExitErr: ctx.Err()}
			return
		}
	}
}

func (r *Relay) handleWire(payload string) {
	var wr wireResponse
	dec := gob.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(&wr); err != nil {
		r.logger.Error("redisrelay: decode response failed", slog.String("error", err.Error()))
		return
	}

	ev := bus.Event{Kind: bus.EventResponse, MID: wr.MID}
	if wr.ErrMsg != "" {
		ev.Err = fmt.Errorf("redisrelay: remote error: %s", wr.ErrMsg)
	} else if len(wr.Response) > 0 {
		v, err := r.codec.Decode(bus.TypeTag(wr.Tag), wr.Response)
		if err != nil {
			ev.Err = fmt.Errorf("redisrelay: decode payload: %w", err)
		} else {
			ev.Response = v
		}
	}
	r.events <- ev
}

// Accept implements bus.TypeTagAccept.
func (r *Relay) Accept(tag bus.TypeTag) bool { return r.acceptTag(tag) }

// IterTypes implements bus.TypeTagAccept.
func (r *Relay) IterTypes() []bus.TypeTag { return r.tags }

// Forward implements bus.Relay.
func (r *Relay) Forward(ctx context.Context, mid uint64, env bus.Envelope) error {
	if r.closed.Load() {
		return bus.ErrReceiverClosed
	}

	payload, err := r.codec.Encode(env.Value())
	if err != nil {
		return &bus.Error{Kind: bus.Serialization, Err: err}
	}

	wm := wireMessage{MID: mid, Tag: env.Tag().String(), Payload: payload}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wm); err != nil {
		return &bus.Error{Kind: bus.Serialization, Err: err}
	}

	corrID := uuid.NewString()
	r.logger.DebugContext(ctx, "redisrelay: forwarding",
		slog.String("correlation_id", corrID), slog.Uint64("mid", mid), slog.String("tag", wm.Tag))

	r.queued.Add(1)
	defer r.queued.Add(-1)

	return r.client.Publish(ctx, r.outbound, buf.Bytes()).Err()
}

// PollRemote implements bus.Relay.
func (r *Relay) PollRemote(ctx context.Context) (bus.Event, error) {
	select {
	case ev := <-r.events:
		return ev, nil
	case <-ctx.Done():
		return bus.Event{}, ctx.Err()
	}
}

// Stats implements bus.Relay.
func (r *Relay) Stats() bus.Stats {
	return bus.Stats{HasQueue: true, QueueSize: int(r.queued.Load())}
}

// Close unsubscribes from the inbound channel.
func (r *Relay) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	if r.sub != nil {
		return r.sub.Close()
	}
	return nil
}

var _ bus.Relay = (*Relay)(nil)
