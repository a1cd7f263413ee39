package redisrelay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/typedbus/core/bus"
	"github.com/dmitrymomot/typedbus/internal/relay/redisrelay"
)

type noopCodec struct{}

func (noopCodec) Encode(v any) ([]byte, error)                        { return nil, nil }
func (noopCodec) Decode(tag bus.TypeTag, data []byte) (any, error) { return nil, nil }

func TestRelay_AcceptAndIterTypes(t *testing.T) {
	tags := []bus.TypeTag{bus.TypeTagOf[int](), bus.TypeTagOf[string]()}
	r := redisrelay.New(nil, "out", "in", noopCodec{}, tags)

	assert.True(t, r.Accept(bus.TypeTagOf[int]()))
	assert.True(t, r.Accept(bus.TypeTagOf[string]()))
	assert.False(t, r.Accept(bus.TypeTagOf[float64]()))
	assert.ElementsMatch(t, tags, r.IterTypes())
}

func TestRelay_StatsStartsAtZero(t *testing.T) {
	r := redisrelay.New(nil, "out", "in", noopCodec{}, nil)
	stats := r.Stats()
	assert.True(t, stats.HasQueue)
	assert.Equal(t, 0, stats.QueueSize)
}
