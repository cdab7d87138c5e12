package core

import "time"

// FairnessRatio is the integer weights governing the weighted round-robin
// allocation of scheduling slots across the control/high/normal lanes.
type FairnessRatio struct {
	Control int
	High    int
	Normal  int
}

// defaultFairnessRatio is the documented default weighting (4, 2, 1).
var defaultFairnessRatio = FairnessRatio{Control: 4, High: 2, Normal: 1}

// SchedulerConfig configures a Scheduler. Every field is optional; the zero
// value resolves to documented defaults. This mirrors eventloop's
// loopOptions/resolveLoopOptions pattern, but as a plain
// struct (not a closure-based functional-options API), matching the
// Python original's SchedulerConfig(...) dataclass-style construction.
type SchedulerConfig struct {
	// TickIntervalMS is the target period, in milliseconds, between ticks
	// for a given node. Default 50.
	TickIntervalMS int
	// IdleSleepMS is the sleep interval, in milliseconds, when no node is
	// runnable. Default 1.
	IdleSleepMS int
	// ShutdownTimeoutS is the maximum time, in seconds, to wait for drain
	// after shutdown is requested. Default 5.0.
	ShutdownTimeoutS float64
	// FairnessRatio is the integer weights for the three priority lanes.
	// Default (4, 2, 1).
	FairnessRatio FairnessRatio
	// MaxBatchPerNode is the maximum number of messages delivered to one
	// node in a single scheduling slice. Default 8.
	MaxBatchPerNode int
}

// resolved is the fully-defaulted, immutable form of SchedulerConfig used
// internally by the scheduler.
type resolved struct {
	tickInterval    time.Duration
	idleSleep       time.Duration
	shutdownTimeout time.Duration
	fairness        FairnessRatio
	maxBatch        int
}

func (c SchedulerConfig) resolve() resolved {
	r := resolved{
		tickInterval:    50 * time.Millisecond,
		idleSleep:       1 * time.Millisecond,
		shutdownTimeout: 5 * time.Second,
		fairness:        defaultFairnessRatio,
		maxBatch:        8,
	}
	if c.TickIntervalMS > 0 {
		r.tickInterval = time.Duration(c.TickIntervalMS) * time.Millisecond
	}
	if c.IdleSleepMS > 0 {
		r.idleSleep = time.Duration(c.IdleSleepMS) * time.Millisecond
	}
	if c.ShutdownTimeoutS > 0 {
		r.shutdownTimeout = time.Duration(c.ShutdownTimeoutS * float64(time.Second))
	}
	if c.FairnessRatio.Control > 0 || c.FairnessRatio.High > 0 || c.FairnessRatio.Normal > 0 {
		r.fairness = c.FairnessRatio
	}
	if c.MaxBatchPerNode > 0 {
		r.maxBatch = c.MaxBatchPerNode
	}
	return r
}
