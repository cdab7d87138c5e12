// Package nodes provides a small library of ready-made core.Node
// implementations, covering the recurring shapes real graphs need: a
// tick-driven source, a pure per-message transform, a bounded-concurrency
// async worker, and a terminal sink. Each is a thin constructor returning
// a *core.Node built from core.Callbacks; none of them subclass anything.
package nodes

import (
	"context"
	"sync"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

// OutputPort and InputPort are the conventional single-port names used by
// this package's nodes, matching the original demo graphs' wiring.
const (
	OutputPort = "output"
	InputPort  = "input"
)

// DataProducer emits one value per tick by pulling from source, until
// source reports exhaustion. source must be safe to call from the
// scheduler's single driving goroutine only; it is never called
// concurrently with itself.
func NewDataProducer(name string, source func() (any, bool)) *core.Node {
	var emitted uint64
	var exhausted bool

	return core.NewNode(name,
		[]core.Port{core.NewOutputPort(OutputPort, core.NewPortSpec(OutputPort, ""))},
		core.Callbacks{
			OnTick: func(_ context.Context, emit core.Emitter) error {
				if exhausted {
					return nil
				}
				v, ok := source()
				if !ok {
					exhausted = true
					return nil
				}
				msg := core.NewDataMessage(v).WithMetadata(core.Metadata{Seq: emitted})
				_, err := emit.Emit(OutputPort, msg)
				if err != nil {
					return err
				}
				emitted++
				return nil
			},
		},
	)
}

// SliceSource returns a DataProducer source function that yields each
// element of values in order, then reports exhaustion.
func SliceSource(values []any) func() (any, bool) {
	var mu sync.Mutex
	i := 0
	return func() (any, bool) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(values) {
			return nil, false
		}
		v := values[i]
		i++
		return v, true
	}
}

// CounterSource returns a DataProducer source function that yields the
// integers [start, start+count), then reports exhaustion. Matches the
// bounded integer-sequence producer used throughout the original demo
// graphs (ProducerNode's max_count/start_value).
func CounterSource(start, count int) func() (any, bool) {
	next := start
	emitted := 0
	return func() (any, bool) {
		if emitted >= count {
			return nil, false
		}
		v := next
		next++
		emitted++
		return v, true
	}
}
