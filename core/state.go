package core

import "sync/atomic"

// NodeLifecycle is the lifecycle state of a Node:
//
//	Init -> Started -> Running <-> (tick|message) -> Stopping -> Stopped
type NodeLifecycle uint32

const (
	// NodeInit is the state of a node that has been constructed but not
	// yet registered with a running scheduler.
	NodeInit NodeLifecycle = iota
	// NodeStarted is the state while on_start runs, before the first tick
	// or message delivery. The node moves on to NodeRunning once on_start
	// returns without error.
	NodeStarted
	// NodeRunning is the state while the node is receiving ticks and
	// messages.
	NodeRunning
	// NodeStopping is the state once the scheduler has decided to quiesce
	// the node: no further ticks or messages will be delivered, and
	// on_stop has not yet run.
	NodeStopping
	// NodeStopped is the terminal state, reached after on_stop has run
	// exactly once.
	NodeStopped
)

// String returns a human-readable name for the lifecycle state.
func (s NodeLifecycle) String() string {
	switch s {
	case NodeInit:
		return "Init"
	case NodeStarted:
		return "Started"
	case NodeRunning:
		return "Running"
	case NodeStopping:
		return "Stopping"
	case NodeStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// nodeState is a lock-free lifecycle state machine, modeled on eventloop's
// FastState: atomic CAS transitions for temporary states, plain Store for
// the irreversible terminal state.
type nodeState struct {
	v atomic.Uint32
}

func newNodeState() *nodeState {
	s := &nodeState{}
	s.v.Store(uint32(NodeInit))
	return s
}

func (s *nodeState) load() NodeLifecycle {
	return NodeLifecycle(s.v.Load())
}

func (s *nodeState) store(state NodeLifecycle) {
	s.v.Store(uint32(state))
}

func (s *nodeState) tryTransition(from, to NodeLifecycle) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
