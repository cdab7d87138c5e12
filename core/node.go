package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

// Emitter is the node-side handle passed to every callback, allowing it to
// emit messages to its own output ports. Implementations route Emit to the
// single outgoing Edge bound to (node, port), resolved once at registration
// time rather than looked up by name on every call.
type Emitter interface {
	// Emit routes msg to the outgoing edge bound to port. Calling Emit on a
	// port with no outgoing edge, or on a port that is not a declared
	// OUTPUT of the node, returns an *EmitError; it never panics and never
	// aborts the scheduler.
	Emit(port string, msg Message) (PutResult, error)
}

// StartFunc is called exactly once per registration, before any tick or
// message delivery.
type StartFunc func(ctx context.Context) error

// StopFunc is called exactly once, after the scheduler has decided to
// quiesce the node and no further deliveries will occur.
type StopFunc func(ctx context.Context) error

// TickFunc is invoked at most every SchedulerConfig.TickIntervalMS for the
// owning node. Intended for time-driven work: producers, periodic
// flushers.
type TickFunc func(ctx context.Context, emit Emitter) error

// MessageFunc is invoked for each message the scheduler delivers to one of
// the node's input ports.
type MessageFunc func(ctx context.Context, port string, msg Message, emit Emitter) error

// Callbacks is the capability set a Node implements. All fields are
// optional; a nil callback is simply never invoked. Modeling the lifecycle
// contract as a struct of function values, rather than requiring user code
// to subclass a framework base type, avoids duck-typed subclassing in
// favor of plain composition.
type Callbacks struct {
	OnStart   StartFunc
	OnStop    StopFunc
	OnTick    TickFunc
	OnMessage MessageFunc
}

// Node is a single-responsibility processing unit with typed input/output
// ports and lifecycle callbacks. Node values are created with NewNode and
// are owned exclusively by the Subgraph they are added to.
type Node struct {
	name      string
	ports     []Port
	callbacks Callbacks

	state *nodeState

	// outEdges/inEdges are resolved once at Subgraph registration time,
	// mapping this node's port names to the single Edge bound to them.
	outEdges map[string]*Edge
	inEdges  map[string]*Edge

	// inputOrder is the declared order of this node's INPUT ports, used by
	// the scheduler to visit ports deterministically when draining control
	// and data messages.
	inputOrder []string

	// blocked is the set of outgoing edges this node is currently stalled
	// writing to under a Block policy. The scheduler clears an entry once
	// that edge has room again, which is what makes the node runnable by
	// reason 3 (a previously blocked emit may now succeed).
	blocked map[*Edge]struct{}

	// hooks is the observability collaborator bound to this node. It
	// defaults to a no-op set at construction and is overwritten with the
	// Scheduler's own Hooks at Scheduler.Register, so a Node built and
	// tested standalone (never registered) never sees a nil tap.
	hooks observability.Hooks
}

// NewNode constructs a Node. Port names must be unique within the node
// regardless of direction.
func NewNode(name string, ports []Port, callbacks Callbacks) *Node {
	if name == "" {
		panic("core: node name must not be empty")
	}
	n := &Node{
		name:      name,
		ports:     append([]Port(nil), ports...),
		callbacks: callbacks,
		state:     newNodeState(),
		blocked:   make(map[*Edge]struct{}),
		hooks:     observability.NewNoOpHooks(),
	}
	for _, p := range n.ports {
		if p.Direction == Input {
			n.inputOrder = append(n.inputOrder, p.Name)
		}
	}
	return n
}

// Name returns the node's stable name, unique within its subgraph.
func (n *Node) Name() string { return n.name }

// Ports returns the node's full port declaration list.
func (n *Node) Ports() []Port { return append([]Port(nil), n.ports...) }

// Port returns the declared port named name, if any.
func (n *Node) Port(name string) (Port, bool) {
	for _, p := range n.ports {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// InputPorts returns the node's INPUT port names in declaration order.
func (n *Node) InputPorts() []string { return append([]string(nil), n.inputOrder...) }

// State returns the node's current lifecycle state.
func (n *Node) State() NodeLifecycle { return n.state.load() }

// hasRoomOnBlocked reports whether any edge this node was previously
// blocked writing to now has room, clearing entries that do.
func (n *Node) hasRoomOnBlocked() bool {
	if len(n.blocked) == 0 {
		return false
	}
	freed := false
	for edge := range n.blocked {
		if !edge.IsFull() {
			delete(n.blocked, edge)
			freed = true
		}
	}
	return freed
}

// bind resolves this node's input and output port names to concrete Edge
// handles. Called exactly once, by Subgraph.validate, at registration.
func (n *Node) bind(in, out map[string]*Edge) {
	n.inEdges = in
	n.outEdges = out
}

// bindHooks attaches the Scheduler's observability collaborator to n.
// Called once per node, by Scheduler.Register.
func (n *Node) bindHooks(h observability.Hooks) {
	n.hooks = h
}

// emitter implements Emitter for a single bound Node. calls counts how
// many times Emit was invoked through this emitter instance, which the
// scheduler uses to distinguish a tick that did real work from a no-op
// tick when deciding whether the graph is idle.
type emitter struct {
	node  *Node
	calls int
}

func (e *emitter) Emit(port string, msg Message) (PutResult, error) {
	e.calls++
	p, ok := e.node.Port(port)
	if !ok || p.Direction != Output {
		return Blocked, &EmitError{Node: e.node.name, Port: port, Kind: "not_output_port"}
	}
	edge, ok := e.node.outEdges[port]
	if !ok {
		return Blocked, &EmitError{Node: e.node.name, Port: port, Kind: "no_edge"}
	}
	result := edge.TryPut(msg)
	e.node.hooks.Metrics.EdgePut(edgeName(edge), result.String())
	if result == Blocked {
		e.node.blocked[edge] = struct{}{}
	} else {
		delete(e.node.blocked, edge)
	}
	return result, nil
}

// safeCall invokes fn, recovering any panic and converting it to a
// *NodeError tagged with phase, mirroring eventloop's safeExecute panic
// recovery around task invocation: a panicking callback must never take
// down the scheduler goroutine with it.
func (n *Node) safeCall(phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &NodeError{Node: n.name, Phase: phase, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}

// wrapNodeError tags err as a *NodeError for phase, unless it already is
// one (safeCall's recover path already produces a tagged *NodeError).
func wrapNodeError(node, phase string, err error) error {
	if ne, ok := err.(*NodeError); ok {
		return ne
	}
	return &NodeError{Node: node, Phase: phase, Cause: err}
}

// start transitions Init -> Started and invokes OnStart, if present.
func (n *Node) start(ctx context.Context) error {
	if !n.state.tryTransition(NodeInit, NodeStarted) {
		return nil
	}
	if n.callbacks.OnStart != nil {
		if err := n.safeCall("on_start", func() error { return n.callbacks.OnStart(ctx) }); err != nil {
			return wrapNodeError(n.name, "on_start", err)
		}
	}
	n.state.tryTransition(NodeStarted, NodeRunning)
	n.hooks.Logger.Log(observability.Event{
		Level: observability.LevelInfo, Category: "node", Node: n.name,
		Message: "node started", Timestamp: time.Now(),
	})
	return nil
}

// tick invokes OnTick, if present and the node is Running, and reports how
// many times the callback called Emit, so the scheduler can tell a
// productive tick from a no-op one.
func (n *Node) tick(ctx context.Context) (int, error) {
	if n.state.load() != NodeRunning || n.callbacks.OnTick == nil {
		return 0, nil
	}
	e := &emitter{node: n}
	if err := n.safeCall("on_tick", func() error { return n.callbacks.OnTick(ctx, e) }); err != nil {
		return e.calls, wrapNodeError(n.name, "on_tick", err)
	}
	return e.calls, nil
}

// deliver invokes OnMessage, if present and the node is Running.
func (n *Node) deliver(ctx context.Context, port string, msg Message) error {
	if n.state.load() != NodeRunning || n.callbacks.OnMessage == nil {
		return nil
	}
	e := &emitter{node: n}
	if err := n.safeCall("on_message", func() error { return n.callbacks.OnMessage(ctx, port, msg, e) }); err != nil {
		return wrapNodeError(n.name, "on_message", err)
	}
	return nil
}

// fail transitions the node to Stopping, e.g. after an uncaught callback
// error.
func (n *Node) fail() {
	n.state.tryTransition(NodeRunning, NodeStopping)
	n.state.tryTransition(NodeStarted, NodeStopping)
}

// requestStop transitions Running -> Stopping, e.g. during scheduler
// shutdown.
func (n *Node) requestStop() {
	n.state.tryTransition(NodeRunning, NodeStopping)
	n.state.tryTransition(NodeStarted, NodeStopping)
}

// stop invokes OnStop exactly once and transitions to Stopped.
func (n *Node) stop(ctx context.Context) error {
	if !n.state.tryTransition(NodeStopping, NodeStopped) {
		// Nodes that never left Init/Started (e.g. construction-only in a
		// test) still receive exactly one on_stop call.
		if n.state.load() == NodeStopped {
			return nil
		}
		n.state.store(NodeStopped)
	}
	var err error
	if n.callbacks.OnStop != nil {
		if callErr := n.safeCall("on_stop", func() error { return n.callbacks.OnStop(ctx) }); callErr != nil {
			err = wrapNodeError(n.name, "on_stop", callErr)
		}
	}
	n.hooks.Logger.Log(observability.Event{
		Level: observability.LevelInfo, Category: "node", Node: n.name,
		Message: "node stopped", Timestamp: time.Now(),
	})
	return err
}
