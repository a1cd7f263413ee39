package bus_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/typedbus/core/bus"
)

const topologyYAML = `
receivers:
  temperature:
    limit: 4
    queue_capacity: 200
`

func TestLoadTopology(t *testing.T) {
	top, err := bus.LoadTopology(strings.NewReader(topologyYAML))
	require.NoError(t, err)

	rt, ok := top.For("temperature")
	require.True(t, ok)
	assert.Equal(t, uint64(4), rt.Limit)
	assert.Equal(t, 200, rt.QueueCapacity)

	_, ok = top.For("missing")
	assert.False(t, ok)
}
