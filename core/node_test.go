package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

func TestNode_NewNode_InitialState(t *testing.T) {
	n := core.NewNode("n", nil, core.Callbacks{})
	assert.Equal(t, "n", n.Name())
	assert.Equal(t, core.NodeInit, n.State())
}

func TestNode_NewNode_PanicsOnEmptyName(t *testing.T) {
	assert.Panics(t, func() {
		core.NewNode("", nil, core.Callbacks{})
	})
}

func TestNode_InputPorts_DeclarationOrder(t *testing.T) {
	n := core.NewNode("n", []core.Port{
		core.NewInputPort("b", core.NewPortSpec("b", "")),
		core.NewOutputPort("out", core.NewPortSpec("out", "")),
		core.NewInputPort("a", core.NewPortSpec("a", "")),
	}, core.Callbacks{})
	assert.Equal(t, []string{"b", "a"}, n.InputPorts())
}

func TestNode_Port_LooksUpByName(t *testing.T) {
	n := core.NewNode("n", []core.Port{
		core.NewInputPort("in", core.NewPortSpec("in", "")),
	}, core.Callbacks{})
	p, ok := n.Port("in")
	require.True(t, ok)
	assert.Equal(t, core.Input, p.Direction)

	_, ok = n.Port("missing")
	assert.False(t, ok)
}

// lifecycleGraph builds a single-node subgraph and registers it with a
// scheduler, without running it, so start()/stop() can be driven directly
// through the public Run/Shutdown surface.
func lifecycleGraph(t *testing.T, callbacks core.Callbacks) (*core.Node, *core.Scheduler) {
	t.Helper()
	n := core.NewNode("n", nil, callbacks)
	sg, err := core.NewSubgraphFromNodes("g", n)
	require.NoError(t, err)
	sched := core.NewScheduler(core.SchedulerConfig{ShutdownTimeoutS: 1}, testHooks())
	require.NoError(t, sched.Register(sg))
	return n, sched
}

func TestNode_Lifecycle_StartRunStop(t *testing.T) {
	var started, stopped int
	n, sched := lifecycleGraph(t, core.Callbacks{
		OnStart: func(_ context.Context) error { started++; return nil },
		OnStop:  func(_ context.Context) error { stopped++; return nil },
	})
	assert.Equal(t, core.NodeInit, n.State())

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for n.State() != core.NodeRunning && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, core.NodeRunning, n.State())

	sched.Shutdown()
	require.NoError(t, <-done)

	assert.Equal(t, core.NodeStopped, n.State())
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, stopped)
}

func TestNode_OnStart_ErrorTransitionsToStopping(t *testing.T) {
	startErr := errors.New("boom")
	n, sched := lifecycleGraph(t, core.Callbacks{
		OnStart: func(_ context.Context) error { return startErr },
	})

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()
	sched.Shutdown()
	require.NoError(t, <-done)

	assert.Equal(t, core.NodeStopped, n.State())
}
