// Package observability defines the pluggable logging, metrics, and
// tracing contract the Meridian scheduler invokes at well-defined points:
// node start/stop, message enqueue/dequeue, edge put results, scheduler
// loop latency, and shutdown transitions.
//
// Unlike eventloop's package-level SetStructuredLogger/getGlobalLogger
// globals, every collaborator here is passed explicitly to the scheduler
// at construction. A no-op implementation of each interface is provided
// so omitting them is ergonomic.
package observability

import (
	"time"
)

// Level mirrors eventloop's LogLevel: the severity of a log entry.
type Level int

const (
	// LevelDebug is for detailed diagnostic information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning conditions.
	LevelWarn
	// LevelError is for error conditions.
	LevelError
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is a single structured log record emitted by the scheduler,
// modeled on eventloop's LogEntry but widened with the fields Meridian's
// taps need (node/edge/port identity instead of loop/timer ids).
type Event struct {
	Level     Level
	Category  string // "node", "edge", "scheduler", "shutdown"
	Node      string
	Edge      string
	Message   string
	Err       error
	Fields    map[string]any
	Timestamp time.Time
}

// Logger is the structured logging tap. Most events are logged from the
// scheduler's single driving goroutine, but Scheduler.Shutdown logs its
// "shutdown requested" event on the goroutine that calls it, so Log may
// run concurrently with the scheduler's own calls.
type Logger interface {
	Log(e Event)
}

// NoOpLogger discards every event. It is the scheduler's default.
type NoOpLogger struct{}

// Log implements Logger.
func (NoOpLogger) Log(Event) {}

// MetricsRecorder is the metrics tap: counters and gauges for edge puts,
// node dispatches, and scheduler loop latency.
type MetricsRecorder interface {
	// EdgePut records the outcome of a TryPut on the named edge.
	EdgePut(edge string, result string)
	// EdgeDepth records an edge's current depth, for gauge-style export.
	EdgeDepth(edge string, depth, capacity int)
	// NodeDispatch records that a node was dispatched in the given lane
	// ("control", "high", "normal"), with the batch size delivered.
	NodeDispatch(node, lane string, batchSize int)
	// SchedulerTick records the wall-clock duration of one scheduling
	// step.
	SchedulerTick(d time.Duration)
	// ShutdownDuration records how long the drain phase of shutdown took.
	ShutdownDuration(d time.Duration)
}

// NoOpMetrics discards every measurement. It is the scheduler's default.
type NoOpMetrics struct{}

func (NoOpMetrics) EdgePut(string, string)             {}
func (NoOpMetrics) EdgeDepth(string, int, int)         {}
func (NoOpMetrics) NodeDispatch(string, string, int)   {}
func (NoOpMetrics) SchedulerTick(time.Duration)        {}
func (NoOpMetrics) ShutdownDuration(time.Duration)     {}

// Span is a single traced operation, started by Tracer.StartSpan and ended
// by calling End.
type Span interface {
	End()
}

// noopSpan implements Span with no behavior.
type noopSpan struct{}

func (noopSpan) End() {}

// Tracer is the tracing tap: a span brackets each node dispatch so an
// external tracing system can build a timeline. Shutdown phases are
// reported through Logger, not as spans.
type Tracer interface {
	StartSpan(name string, fields map[string]any) Span
}

// NoOpTracer never produces a real span. It is the scheduler's default.
type NoOpTracer struct{}

// StartSpan implements Tracer.
func (NoOpTracer) StartSpan(string, map[string]any) Span { return noopSpan{} }

// Hooks bundles the three taps. Any nil field is replaced with its no-op
// implementation by Resolve, which core.NewScheduler applies, so a
// zero-value Hooks is usable there.
type Hooks struct {
	Logger  Logger
	Metrics MetricsRecorder
	Tracer  Tracer
}

// NewNoOpHooks returns a Hooks populated entirely with no-op
// implementations, the scheduler's ergonomic default.
func NewNoOpHooks() Hooks {
	return Hooks{Logger: NoOpLogger{}, Metrics: NoOpMetrics{}, Tracer: NoOpTracer{}}
}

// resolve fills any nil field of h with its no-op counterpart.
func (h Hooks) resolve() Hooks {
	if h.Logger == nil {
		h.Logger = NoOpLogger{}
	}
	if h.Metrics == nil {
		h.Metrics = NoOpMetrics{}
	}
	if h.Tracer == nil {
		h.Tracer = NoOpTracer{}
	}
	return h
}

// Resolve is the exported form of resolve, used by packages outside
// observability (e.g. core.Scheduler) that accept a partially populated
// Hooks value and must guarantee every field is usable.
func Resolve(h Hooks) Hooks { return h.resolve() }
