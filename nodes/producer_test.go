package nodes_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
	"github.com/ghostweasellabs/meridian-runtime-examples/nodes"
	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

func runGraphUntil(t *testing.T, sg *core.Subgraph, cond func() bool) {
	t.Helper()
	sched := core.NewScheduler(core.SchedulerConfig{
		TickIntervalMS:   1,
		IdleSleepMS:      1,
		ShutdownTimeoutS: 1,
	}, observability.NewNoOpHooks())
	require.NoError(t, sched.Register(sg))

	done := make(chan error, 1)
	go func() { done <- sched.Run(context.Background()) }()

	deadline := time.Now().Add(3 * time.Second)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	sched.Shutdown()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestCounterSource_YieldsRangeThenExhausts(t *testing.T) {
	src := nodes.CounterSource(5, 3)
	var got []int
	for {
		v, ok := src()
		if !ok {
			break
		}
		got = append(got, v.(int))
	}
	assert.Equal(t, []int{5, 6, 7}, got)

	_, ok := src()
	assert.False(t, ok, "source must stay exhausted")
}

func TestSliceSource_YieldsInOrder(t *testing.T) {
	src := nodes.SliceSource([]any{"a", "b", "c"})
	var got []any
	for {
		v, ok := src()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []any{"a", "b", "c"}, got)
}

func TestNewDataProducer_EmitsEachSourceValue(t *testing.T) {
	producer := nodes.NewDataProducer("p", nodes.CounterSource(0, 4))
	consumer, collector := nodes.NewCollector("c", nil)

	sg, err := core.NewSubgraphFromNodes("g", producer, consumer)
	require.NoError(t, err)
	require.NoError(t, sg.Connect(
		core.PortRef{Node: "p", Port: nodes.OutputPort},
		core.PortRef{Node: "c", Port: nodes.InputPort},
		4,
		core.BlockPolicy(),
	))

	runGraphUntil(t, sg, func() bool { return collector.Len() >= 4 })

	assert.Equal(t, []any{0, 1, 2, 3}, collector.Items())
}

func TestNewMapTransformer_AppliesFunction(t *testing.T) {
	producer := nodes.NewDataProducer("p", nodes.CounterSource(1, 3))
	double := nodes.NewMapTransformer("t", func(v any) (any, error) { return v.(int) * 2, nil })
	consumer, collector := nodes.NewCollector("c", nil)

	sg, err := core.NewSubgraphFromNodes("g", producer, double, consumer)
	require.NoError(t, err)
	require.NoError(t, sg.Connect(
		core.PortRef{Node: "p", Port: nodes.OutputPort},
		core.PortRef{Node: "t", Port: nodes.InputPort},
		4,
		core.BlockPolicy(),
	))
	require.NoError(t, sg.Connect(
		core.PortRef{Node: "t", Port: nodes.OutputPort},
		core.PortRef{Node: "c", Port: nodes.InputPort},
		4,
		core.BlockPolicy(),
	))

	runGraphUntil(t, sg, func() bool { return collector.Len() >= 3 })

	assert.Equal(t, []any{2, 4, 6}, collector.Items())
}

func TestNewMapTransformer_PassesControlThrough(t *testing.T) {
	pass := nodes.NewMapTransformer("t", func(v any) (any, error) { return v, nil })

	var mu sync.Mutex
	var seenControl bool
	sink := core.NewNode("sink",
		[]core.Port{core.NewInputPort("in", core.NewPortSpec("in", ""))},
		core.Callbacks{
			OnMessage: func(_ context.Context, port string, msg core.Message, _ core.Emitter) error {
				mu.Lock()
				seenControl = seenControl || msg.IsControl()
				mu.Unlock()
				return nil
			},
		},
	)

	source := core.NewNode("source",
		[]core.Port{core.NewOutputPort("out", core.NewPortSpec("out", ""))},
		core.Callbacks{
			OnTick: func(_ context.Context, emit core.Emitter) error {
				_, err := emit.Emit("out", core.NewControlMessage("ping"))
				return err
			},
		},
	)

	sg2, err := core.NewSubgraphFromNodes("g2", source, pass, sink)
	require.NoError(t, err)
	require.NoError(t, sg2.Connect(core.PortRef{Node: "source", Port: "out"}, core.PortRef{Node: "t", Port: nodes.InputPort}, 4, core.BlockPolicy()))
	require.NoError(t, sg2.Connect(core.PortRef{Node: "t", Port: nodes.OutputPort}, core.PortRef{Node: "sink", Port: "in"}, 4, core.BlockPolicy()))

	runGraphUntil(t, sg2, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seenControl
	})

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seenControl)
}
