package nodes

import (
	"context"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

// NewMapTransformer applies fn to each DATA message's payload and emits
// the result unchanged in kind. Non-DATA messages (CONTROL, ERROR) pass
// through untouched, matching the transparent-pipe behavior pipeline_demo's
// Transformer node expects from anything sitting between a producer and a
// sink. A non-nil error from fn is returned from OnMessage unchanged,
// which drives the node to STOPPING through the scheduler's normal
// callback-failure path; nothing is emitted for that message.
func NewMapTransformer(name string, fn func(any) (any, error)) *core.Node {
	return core.NewNode(name,
		[]core.Port{
			core.NewInputPort(InputPort, core.NewPortSpec(InputPort, "")),
			core.NewOutputPort(OutputPort, core.NewPortSpec(OutputPort, "")),
		},
		core.Callbacks{
			OnMessage: func(_ context.Context, port string, msg core.Message, emit core.Emitter) error {
				if port != InputPort {
					return nil
				}
				if !msg.IsData() {
					_, err := emit.Emit(OutputPort, msg)
					return err
				}
				result, err := fn(msg.Payload())
				if err != nil {
					return err
				}
				out := core.NewDataMessage(result).WithMetadata(msg.Metadata())
				_, err = emit.Emit(OutputPort, out)
				return err
			},
		},
	)
}
