package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

// schedulerPhase is the scheduler's own run-level state, distinct from any
// single Node's NodeLifecycle.
type schedulerPhase int32

const (
	phaseIdle schedulerPhase = iota
	phaseActive
	phaseDraining
	phaseStopped
)

// Scheduler drives every Node in a registered Subgraph: it computes the set
// of currently runnable nodes, partitions them into the control/high/normal
// priority lanes, and services each lane a weighted number of times per
// round, matching eventloop's tick-driven dispatch loop but fanned out
// across many independent nodes instead of one timer heap.
//
// A Scheduler runs at most one Subgraph, for the lifetime of one Run call.
type Scheduler struct {
	cfg   resolved
	hooks observability.Hooks

	mu         sync.Mutex
	sg         *Subgraph
	nodes      []*Node
	edges      []*Edge
	registered bool

	phase atomic.Int32

	nextTick   map[string]time.Time
	hasTickFor map[string]bool

	shutdownRequested atomic.Bool
	shutdownAt        atomic.Int64 // UnixNano, valid once shutdownRequested is true
	shutdownOnce      sync.Once

	running atomic.Bool
}

// NewScheduler constructs a Scheduler with the given configuration and
// observability taps. A zero-value Hooks resolves to every tap's no-op
// implementation.
func NewScheduler(config SchedulerConfig, hooks observability.Hooks) *Scheduler {
	return &Scheduler{
		cfg:        config.resolve(),
		hooks:      observability.Resolve(hooks),
		nextTick:   make(map[string]time.Time),
		hasTickFor: make(map[string]bool),
	}
}

// Register binds sg to the scheduler, validating its wiring and resolving
// every node's input/output edge handles. A Scheduler accepts exactly one
// Subgraph; calling Register twice, or registering a Subgraph already
// registered elsewhere, fails.
func (s *Scheduler) Register(sg *Subgraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registered {
		return ErrAlreadyRegistered
	}
	if sg.registered {
		return ErrAlreadyRegistered
	}
	edges, err := sg.validate()
	if err != nil {
		return err
	}
	sg.registered = true
	s.sg = sg
	s.nodes = sg.Nodes()
	s.edges = edges
	s.registered = true

	now := time.Now()
	for _, n := range s.nodes {
		n.bindHooks(s.hooks)
		if n.callbacks.OnTick != nil {
			s.hasTickFor[n.name] = true
			s.nextTick[n.name] = now
		}
	}
	return nil
}

// Shutdown requests a graceful stop. It is safe to call concurrently and
// more than once; only the first call has effect. A Shutdown before Run
// simply arms the request so the first Run call drains immediately.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.shutdownAt.Store(time.Now().UnixNano())
		s.shutdownRequested.Store(true)
		s.hooks.Logger.Log(observability.Event{
			Level: observability.LevelInfo, Category: "shutdown",
			Message: "shutdown requested", Timestamp: time.Now(),
		})
	})
}

func (s *Scheduler) isShutdownRequested() bool { return s.shutdownRequested.Load() }

func (s *Scheduler) shutdownRequestedAt() time.Time {
	return time.Unix(0, s.shutdownAt.Load())
}

// Run starts every node (on_start), then drives the scheduling loop until
// the context is cancelled or Shutdown is called, draining in-flight work
// before every node's on_stop runs exactly once. Run blocks for the
// lifetime of the run; it returns nil on a clean shutdown, or a
// *ShutdownTimeout if the drain phase exceeded SchedulerConfig's
// ShutdownTimeoutS (nodes are still forced to STOPPED in that case).
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if !s.registered {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	nodes := s.nodes
	s.mu.Unlock()

	if !s.running.CompareAndSwap(false, true) {
		return ErrSchedulerRunning
	}
	defer s.running.Store(false)

	s.phase.Store(int32(phaseActive))

	for _, n := range nodes {
		if err := n.start(ctx); err != nil {
			s.reportNodeError(n, err)
			n.fail()
		}
	}

	lastActivity := time.Now()
	draining := false
	timedOut := false

	for {
		if ctx.Err() != nil && !s.isShutdownRequested() {
			s.Shutdown()
		}

		if !draining && s.isShutdownRequested() {
			draining = true
			s.phase.Store(int32(phaseDraining))
			s.hooks.Logger.Log(observability.Event{
				Level: observability.LevelInfo, Category: "shutdown",
				Message: "draining", Timestamp: time.Now(),
			})
		}

		ctl, high, norm := s.classify(draining)
		total := len(ctl) + len(high) + len(norm)

		if total == 0 {
			s.settleStoppingNodes(ctx)
			if draining {
				break
			}
			if time.Since(lastActivity) >= s.cfg.shutdownTimeout {
				s.Shutdown()
				continue
			}
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.idleSleep):
			}
			continue
		}

		stepStart := time.Now()
		didWork := s.runRound(ctx, ctl, high, norm)
		s.hooks.Metrics.SchedulerTick(time.Since(stepStart))
		s.settleStoppingNodes(ctx)

		// A round with runnable nodes is not necessarily a productive one:
		// a tick-triggered node whose source is exhausted (or any node
		// whose tick is a pure no-op) re-enters the high lane every
		// tickInterval forever, which would otherwise keep total > 0
		// indefinitely and starve the idle self-shutdown check above.
		// Only a real delivery or an emitting tick counts as activity for
		// the idle timer; everything else is treated exactly like an
		// empty round.
		if didWork {
			lastActivity = time.Now()
		} else if !draining && time.Since(lastActivity) >= s.cfg.shutdownTimeout {
			s.Shutdown()
		}

		if draining && time.Since(s.shutdownRequestedAt()) >= s.cfg.shutdownTimeout {
			timedOut = true
			break
		}
	}

	s.hooks.Metrics.ShutdownDuration(time.Since(s.shutdownRequestedAt()))
	s.stopAll(ctx)
	s.phase.Store(int32(phaseStopped))
	s.hooks.Logger.Log(observability.Event{
		Level: observability.LevelInfo, Category: "shutdown",
		Message: "stopped", Timestamp: time.Now(),
	})

	if timedOut {
		return &ShutdownTimeout{Elapsed: time.Since(s.shutdownRequestedAt()).String()}
	}
	return nil
}

// classify partitions every currently runnable node into the three
// priority lanes, preserving subgraph registration order within each lane.
// When draining is true, tick-triggered runnability is suppressed: no new
// ticks are issued once shutdown has been requested, only in-flight
// messages continue to drain.
func (s *Scheduler) classify(draining bool) (control, high, normal []*Node) {
	now := time.Now()
	for _, n := range s.nodes {
		if n.State() != NodeRunning {
			continue
		}
		hasControl := s.pendingControl(n)
		hasData := s.pendingData(n)
		tickDue := !draining && s.hasTickFor[n.name] && !now.Before(s.nextTick[n.name])
		blockedFreed := n.hasRoomOnBlocked()

		switch {
		case hasControl:
			control = append(control, n)
		case tickDue && !hasData:
			high = append(high, n)
		case hasData || blockedFreed:
			normal = append(normal, n)
		}
	}
	return control, high, normal
}

// pendingControl reports whether any of n's input edges currently has a
// CONTROL message at its head.
func (s *Scheduler) pendingControl(n *Node) bool {
	for _, port := range n.inputOrder {
		edge := n.inEdges[port]
		if edge == nil {
			continue
		}
		if kind, ok := edge.PeekHeadKind(); ok && kind == ControlKind {
			return true
		}
	}
	return false
}

// pendingData reports whether any of n's input edges currently has a
// non-CONTROL message at its head.
func (s *Scheduler) pendingData(n *Node) bool {
	for _, port := range n.inputOrder {
		edge := n.inEdges[port]
		if edge == nil {
			continue
		}
		if kind, ok := edge.PeekHeadKind(); ok && kind != ControlKind {
			return true
		}
	}
	return false
}

// runRound services up to FairnessRatio.{Control,High,Normal} dispatch
// slots from each lane, in that order, implementing weighted round-robin
// fairness across lanes. A lane with fewer runnable nodes than its weight
// simply cycles back to the front of its own list, which is what lets a
// single busy node absorb its lane's full allocation. It reports whether
// any dispatch in the round did real work (a delivery or an emitting
// tick), which the caller uses to drive the idle self-shutdown timer.
func (s *Scheduler) runRound(ctx context.Context, control, high, normal []*Node) bool {
	control_ := s.dispatchLane(ctx, control, "control", s.cfg.fairness.Control)
	high_ := s.dispatchLane(ctx, high, "high", s.cfg.fairness.High)
	normal_ := s.dispatchLane(ctx, normal, "normal", s.cfg.fairness.Normal)
	return control_ || high_ || normal_
}

func (s *Scheduler) dispatchLane(ctx context.Context, lane []*Node, name string, weight int) bool {
	if len(lane) == 0 || weight <= 0 {
		return false
	}
	worked := false
	for i := 0; i < weight; i++ {
		n := lane[i%len(lane)]
		if n.State() != NodeRunning {
			continue
		}
		if s.dispatchNode(ctx, n, name) {
			worked = true
		}
	}
	return worked
}

// dispatchNode delivers up to MaxBatchPerNode work units to n: CONTROL
// messages across all its input ports first, then DATA/ERROR messages in
// per-port FIFO order, then one tick if due and shutdown has not been
// requested. A node failure aborts its own
// remaining batch but never the scheduler. It returns whether any message
// was delivered or the tick (if one ran) called Emit at least once — a
// tick that runs and does nothing is not "work" for idle-timer purposes.
func (s *Scheduler) dispatchNode(ctx context.Context, n *Node, lane string) bool {
	span := s.hooks.Tracer.StartSpan("node.dispatch", map[string]any{"node": n.name, "lane": lane})
	defer span.End()

	delivered := 0
	worked := false

	for delivered < s.cfg.maxBatch {
		port, msg, ok := s.popControl(n)
		if !ok {
			break
		}
		worked = true
		if err := n.deliver(ctx, port, msg); err != nil {
			s.reportNodeError(n, err)
			n.fail()
			s.hooks.Metrics.NodeDispatch(n.name, lane, delivered+1)
			return worked
		}
		delivered++
	}

	for delivered < s.cfg.maxBatch {
		port, msg, ok := s.popData(n)
		if !ok {
			break
		}
		worked = true
		if err := n.deliver(ctx, port, msg); err != nil {
			s.reportNodeError(n, err)
			n.fail()
			s.hooks.Metrics.NodeDispatch(n.name, lane, delivered+1)
			return worked
		}
		delivered++
	}

	if !s.isShutdownRequested() && s.hasTickFor[n.name] && !time.Now().Before(s.nextTick[n.name]) {
		emitted, err := n.tick(ctx)
		if err != nil {
			s.reportNodeError(n, err)
			n.fail()
		}
		if emitted > 0 {
			worked = true
		}
		s.nextTick[n.name] = time.Now().Add(s.cfg.tickInterval)
	}

	if delivered > 0 {
		s.hooks.Metrics.NodeDispatch(n.name, lane, delivered)
	}
	return worked
}

// popControl removes and returns the first CONTROL message found at the
// head of one of n's input edges, scanning ports in declaration order.
func (s *Scheduler) popControl(n *Node) (string, Message, bool) {
	for _, port := range n.inputOrder {
		edge := n.inEdges[port]
		if edge == nil {
			continue
		}
		if kind, ok := edge.PeekHeadKind(); !ok || kind != ControlKind {
			continue
		}
		msg, ok := edge.TryGet()
		if !ok {
			continue
		}
		s.hooks.Metrics.EdgeDepth(edgeName(edge), edge.Depth(), edge.Capacity())
		return port, msg, true
	}
	return "", Message{}, false
}

// popData removes and returns the first DATA/ERROR message found at the
// head of one of n's input edges, scanning ports in declaration order.
func (s *Scheduler) popData(n *Node) (string, Message, bool) {
	for _, port := range n.inputOrder {
		edge := n.inEdges[port]
		if edge == nil {
			continue
		}
		if kind, ok := edge.PeekHeadKind(); !ok || kind == ControlKind {
			continue
		}
		msg, ok := edge.TryGet()
		if !ok {
			continue
		}
		s.hooks.Metrics.EdgeDepth(edgeName(edge), edge.Depth(), edge.Capacity())
		return port, msg, true
	}
	return "", Message{}, false
}

// settleStoppingNodes calls on_stop on every node that has transitioned to
// NodeStopping (e.g. after a callback failure), as soon as the scheduler
// notices, rather than waiting for final shutdown.
func (s *Scheduler) settleStoppingNodes(ctx context.Context) {
	for _, n := range s.nodes {
		if n.State() != NodeStopping {
			continue
		}
		if err := n.stop(ctx); err != nil {
			s.reportNodeError(n, err)
		}
	}
}

// stopAll forces every node that reached Started/Running/Stopping to
// Stopped, in reverse registration order. Reverse registration order
// approximates reverse topological order for the common case of a
// pipeline wired source-to-sink; Meridian subgraphs are not required to be
// acyclic, so this is a best-effort ordering, not a guarantee.
func (s *Scheduler) stopAll(ctx context.Context) {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		switch n.State() {
		case NodeStopped, NodeInit:
			continue
		}
		n.requestStop()
		if err := n.stop(ctx); err != nil {
			s.reportNodeError(n, err)
		}
	}
}

func (s *Scheduler) reportNodeError(n *Node, err error) {
	s.hooks.Logger.Log(observability.Event{
		Level:     observability.LevelError,
		Category:  "node",
		Node:      n.name,
		Message:   "node callback failed",
		Err:       err,
		Timestamp: time.Now(),
	})
}

func edgeName(e *Edge) string {
	return e.Source.Node + "." + e.Source.Port + "->" + e.Dest.Node + "." + e.Dest.Port
}
