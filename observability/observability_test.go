package observability_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", observability.LevelDebug.String())
	assert.Equal(t, "INFO", observability.LevelInfo.String())
	assert.Equal(t, "WARN", observability.LevelWarn.String())
	assert.Equal(t, "ERROR", observability.LevelError.String())
	assert.Equal(t, "UNKNOWN", observability.Level(99).String())
}

func TestNewNoOpHooks_PopulatesAllFields(t *testing.T) {
	h := observability.NewNoOpHooks()
	assert.NotNil(t, h.Logger)
	assert.NotNil(t, h.Metrics)
	assert.NotNil(t, h.Tracer)

	// None of these should panic.
	h.Logger.Log(observability.Event{Level: observability.LevelInfo, Message: "hello"})
	h.Metrics.EdgePut("e", "accepted")
	h.Metrics.EdgeDepth("e", 1, 4)
	h.Metrics.NodeDispatch("n", "normal", 1)
	h.Metrics.SchedulerTick(time.Millisecond)
	h.Metrics.ShutdownDuration(time.Millisecond)
	span := h.Tracer.StartSpan("op", nil)
	span.End()
}

func TestResolve_FillsOnlyMissingFields(t *testing.T) {
	custom := observability.NoOpLogger{}
	h := observability.Resolve(observability.Hooks{Logger: custom})
	assert.Equal(t, custom, h.Logger)
	assert.NotNil(t, h.Metrics)
	assert.NotNil(t, h.Tracer)
}

func TestResolve_EmptyHooksGetsFullDefault(t *testing.T) {
	h := observability.Resolve(observability.Hooks{})
	assert.IsType(t, observability.NoOpLogger{}, h.Logger)
	assert.IsType(t, observability.NoOpMetrics{}, h.Metrics)
	assert.IsType(t, observability.NoOpTracer{}, h.Tracer)
}
