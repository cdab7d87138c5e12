package nodes

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

// AsyncFunc is a potentially long-running unit of work dispatched by
// AsyncWorker. It must respect ctx cancellation.
type AsyncFunc func(ctx context.Context, payload any) (any, error)

// NewAsyncWorker runs asyncFn on a goroutine per inbound DATA message, with
// at most maxConcurrent running at once, and emits each result as it
// completes (out of order, like the original async_worker_demo).
//
// Completions are never emitted from the background goroutines themselves:
// doing so would call Emit concurrently with the scheduler goroutine,
// racing on the node's internal blocked-edge bookkeeping. Instead each
// goroutine only appends its result to a mutex-guarded queue, and OnTick —
// invoked exclusively on the scheduler goroutine — drains that queue and
// performs the actual Emit calls, matching the polled-on-tick completion
// model.
//
// Messages arriving beyond maxConcurrent are held in an internal FIFO
// queue rather than applying backpressure to the inbound edge; capacity
// planning for that queue is the caller's responsibility via the inbound
// edge's own policy, since AsyncWorker itself never blocks on_message.
func NewAsyncWorker(name string, asyncFn AsyncFunc, maxConcurrent int64) *core.Node {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	var mu sync.Mutex
	var pending []core.Message
	var completed []core.Message

	// launch starts goroutines for as many queued messages as the
	// semaphore currently allows. Each goroutine only ever touches
	// completed, never an Emitter, so it is safe to call from OnMessage
	// (arbitrary caller) as well as from OnTick (scheduler goroutine).
	launch := func(ctx context.Context) {
		for {
			mu.Lock()
			if len(pending) == 0 {
				mu.Unlock()
				return
			}
			if !sem.TryAcquire(1) {
				mu.Unlock()
				return
			}
			msg := pending[0]
			pending = pending[1:]
			mu.Unlock()

			go func() {
				defer sem.Release(1)
				result, err := asyncFn(ctx, msg.Payload())
				var out core.Message
				if err != nil {
					out = core.NewErrorMessage(err)
				} else {
					out = core.NewDataMessage(result).WithMetadata(msg.Metadata())
				}
				mu.Lock()
				completed = append(completed, out)
				mu.Unlock()
			}()
		}
	}

	return core.NewNode(name,
		[]core.Port{
			core.NewInputPort(InputPort, core.NewPortSpec(InputPort, "")),
			core.NewOutputPort(OutputPort, core.NewPortSpec(OutputPort, "")),
		},
		core.Callbacks{
			OnMessage: func(ctx context.Context, port string, msg core.Message, _ core.Emitter) error {
				if port != InputPort || !msg.IsData() {
					return nil
				}
				mu.Lock()
				pending = append(pending, msg)
				mu.Unlock()
				launch(ctx)
				return nil
			},
			OnTick: func(ctx context.Context, emit core.Emitter) error {
				launch(ctx)

				mu.Lock()
				ready := completed
				completed = nil
				mu.Unlock()

				for _, msg := range ready {
					if _, err := emit.Emit(OutputPort, msg); err != nil {
						return err
					}
				}
				return nil
			},
		},
	)
}
