package nodes

import (
	"context"
	"sync"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
)

// Collector is a terminal sink: every DATA message delivered to its input
// port is appended to an internal slice and, if sink is non-nil, also
// handed to sink for a side effect (printing, forwarding to a test
// assertion, etc). Collector never emits.
type Collector struct {
	mu    sync.Mutex
	items []any
}

// NewCollector builds a Collector node. sink may be nil.
func NewCollector(name string, sink func(item any)) (*core.Node, *Collector) {
	c := &Collector{}
	node := core.NewNode(name,
		[]core.Port{core.NewInputPort(InputPort, core.NewPortSpec(InputPort, ""))},
		core.Callbacks{
			OnMessage: func(_ context.Context, port string, msg core.Message, _ core.Emitter) error {
				if port != InputPort || !msg.IsData() {
					return nil
				}
				c.mu.Lock()
				c.items = append(c.items, msg.Payload())
				c.mu.Unlock()
				if sink != nil {
					sink(msg.Payload())
				}
				return nil
			},
		},
	)
	return node, c
}

// Items returns a snapshot of every payload collected so far.
func (c *Collector) Items() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.items...)
}

// Len returns the number of items collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
