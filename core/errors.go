package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors, matching the style of eventloop's
// ErrLoopAlreadyRunning/ErrLoopTerminated/ErrLoopNotRunning family: plain
// errors.New values for conditions callers commonly check with errors.Is,
// rather than every condition being its own struct type.
var (
	// ErrAlreadyRegistered is returned by Scheduler.Register when a Subgraph
	// has already been registered to a scheduler (topology becomes immutable
	// after registration).
	ErrAlreadyRegistered = errors.New("core: subgraph is already registered")

	// ErrSchedulerRunning is returned when Run is called on a scheduler that
	// is already running.
	ErrSchedulerRunning = errors.New("core: scheduler is already running")

	// ErrSchedulerNotRunning is returned by Run when no Subgraph has been
	// registered with the scheduler.
	ErrSchedulerNotRunning = errors.New("core: scheduler is not running")
)

// WiringError describes a failure detected while validating a Subgraph's
// topology. It is fatal to registration and is never raised from
// Scheduler.Run.
type WiringError struct {
	// Reason is a short machine-checkable classification, e.g.
	// "unknown_port", "duplicate_input_edge", "incompatible_schema",
	// "duplicate_node_name".
	Reason string
	// Node, Port name the offending (node, port) pair, where applicable.
	Node string
	Port string
	// Detail is a human-readable description of the violation.
	Detail string
}

// Error implements the error interface.
func (e *WiringError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("core: wiring error (%s): %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("core: wiring error (%s) at node %q port %q: %s", e.Reason, e.Node, e.Port, e.Detail)
}

// EmitError is returned by Emitter.Emit (the Emitter passed to callbacks)
// when a node emits to a port that has no outgoing edge, or to a port that
// is not a declared OUTPUT of the node. It is delivered to the node as the
// return value of Emit; it never crashes the scheduler.
type EmitError struct {
	Node string
	Port string
	Kind string // "no_edge" | "not_output_port"
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	switch e.Kind {
	case "not_output_port":
		return fmt.Sprintf("core: emit error: node %q has no output port %q", e.Node, e.Port)
	default:
		return fmt.Sprintf("core: emit error: node %q output port %q has no outgoing edge", e.Node, e.Port)
	}
}

// NodeError wraps an uncaught failure from inside a node callback. The
// scheduler catches the panic or error, records it via the observability
// taps, and transitions the node to STOPPING; other nodes continue
// running.
type NodeError struct {
	Node  string
	Phase string // "on_start" | "on_stop" | "on_tick" | "on_message"
	Cause error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("core: node %q failed during %s: %v", e.Node, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *NodeError) Unwrap() error { return e.Cause }

// ShutdownTimeout is returned by Scheduler.Run when the drain phase of
// shutdown exceeds SchedulerConfig.ShutdownTimeoutS. All nodes are still
// forced to STOPPED before this error is returned to the caller.
type ShutdownTimeout struct {
	Elapsed string
}

// Error implements the error interface.
func (e *ShutdownTimeout) Error() string {
	return fmt.Sprintf("core: shutdown drain exceeded timeout (elapsed %s)", e.Elapsed)
}
