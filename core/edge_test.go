package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

func ref(node, port string) core.PortRef { return core.PortRef{Node: node, Port: port} }

func TestEdge_BlockPolicy(t *testing.T) {
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 2, core.BlockPolicy())

	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(1)))
	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(2)))
	assert.True(t, e.IsFull())
	assert.Equal(t, core.Blocked, e.TryPut(core.NewDataMessage(3)))

	msg, ok := e.TryGet()
	require.True(t, ok)
	assert.Equal(t, 1, msg.Payload())
	assert.False(t, e.IsFull())
}

func TestEdge_DropPolicy(t *testing.T) {
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 1, core.DropPolicy())
	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(1)))
	assert.Equal(t, core.Dropped, e.TryPut(core.NewDataMessage(2)))

	msg, ok := e.TryGet()
	require.True(t, ok)
	assert.Equal(t, 1, msg.Payload())
}

func TestEdge_LatestPolicy(t *testing.T) {
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 1, core.LatestPolicy())
	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(1)))
	assert.Equal(t, core.Replaced, e.TryPut(core.NewDataMessage(2)))

	msg, ok := e.TryGet()
	require.True(t, ok)
	assert.Equal(t, 2, msg.Payload())
}

func TestEdge_CoalescePolicy(t *testing.T) {
	sum := func(tail, next core.Message) core.Message {
		return core.NewDataMessage(tail.Payload().(int) + next.Payload().(int))
	}
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 1, core.CoalescePolicy(sum))
	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(1)))
	assert.Equal(t, core.Coalesced, e.TryPut(core.NewDataMessage(2)))

	msg, ok := e.TryGet()
	require.True(t, ok)
	assert.Equal(t, 3, msg.Payload())
}

func TestEdge_ControlBypass(t *testing.T) {
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 1, core.DropPolicy().WithControlBypass())
	require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(1)))
	// Edge is full of DATA; a CONTROL message must still be accepted, evicting it.
	assert.Equal(t, core.Accepted, e.TryPut(core.NewControlMessage("stop")))

	msg, ok := e.TryGet()
	require.True(t, ok)
	assert.True(t, msg.IsControl())
}

func TestEdge_FIFOOrderPreserved(t *testing.T) {
	e := core.NewEdge(ref("p", "out"), ref("c", "in"), 4, core.BlockPolicy())
	for i := 0; i < 4; i++ {
		require.Equal(t, core.Accepted, e.TryPut(core.NewDataMessage(i)))
	}
	for i := 0; i < 4; i++ {
		msg, ok := e.TryGet()
		require.True(t, ok)
		assert.Equal(t, i, msg.Payload())
	}
	_, ok := e.TryGet()
	assert.False(t, ok)
}

func TestNewEdge_PanicsOnNonPositiveCapacity(t *testing.T) {
	assert.Panics(t, func() {
		core.NewEdge(ref("p", "out"), ref("c", "in"), 0, core.BlockPolicy())
	})
}

func TestCoalescePolicy_PanicsOnNilFunc(t *testing.T) {
	assert.Panics(t, func() {
		core.CoalescePolicy(nil)
	})
}
