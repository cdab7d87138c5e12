// Command streaming_coalesce demonstrates a high-rate sensor feeding a
// per-item aggregator into a small downstream queue, where a Coalesce
// policy merges bursts deterministically instead of blocking or dropping.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

type sensorReading struct {
	ts    time.Time
	value float64
}

type windowAgg struct {
	count       int
	sum         float64
	minV, maxV  float64
}

func (w windowAgg) avg() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

func mergeWindow(a, b windowAgg) windowAgg {
	return windowAgg{
		count: a.count + b.count,
		sum:   a.sum + b.sum,
		minV:  math.Min(a.minV, b.minV),
		maxV:  math.Max(a.maxV, b.maxV),
	}
}

func coalesceAgg(tail, next core.Message) core.Message {
	a := tail.Payload().(windowAgg)
	b := next.Payload().(windowAgg)
	return core.NewDataMessage(mergeWindow(a, b)).WithMetadata(next.Metadata())
}

func newSensorNode(name string, rateHz float64) *core.Node {
	period := time.Duration(float64(time.Second) / math.Max(1e-6, rateHz))
	lastEmit := time.Time{}
	rng := rand.New(rand.NewSource(1234))

	return core.NewNode(name,
		[]core.Port{core.NewOutputPort("out", core.NewPortSpec("out", "sensorReading"))},
		core.Callbacks{
			OnTick: func(_ context.Context, emit core.Emitter) error {
				now := time.Now()
				if now.Sub(lastEmit) < period {
					return nil
				}
				lastEmit = now
				reading := sensorReading{ts: now, value: 0.5 + rng.Float64()}
				_, err := emit.Emit("out", core.NewDataMessage(reading))
				return err
			},
		},
	)
}

func newWindowAggNode(name string, logger *slog.Logger) *core.Node {
	return core.NewNode(name,
		[]core.Port{
			core.NewInputPort("in", core.NewPortSpec("in", "sensorReading")),
			core.NewOutputPort("out", core.NewPortSpec("out", "windowAgg")),
		},
		core.Callbacks{
			OnMessage: func(_ context.Context, port string, msg core.Message, emit core.Emitter) error {
				if port != "in" || !msg.IsData() {
					return nil
				}
				reading, ok := msg.Payload().(sensorReading)
				if !ok {
					logger.Warn("agg.invalid_payload", "node", name, "port", port)
					return nil
				}
				agg := windowAgg{count: 1, sum: reading.value, minV: reading.value, maxV: reading.value}
				_, err := emit.Emit("out", core.NewDataMessage(agg))
				return err
			},
		},
	)
}

func newSinkNode(name string, keep int, verbose bool, logger *slog.Logger) *core.Node {
	buf := make([]windowAgg, 0, keep)
	lastSummary := time.Time{}

	return core.NewNode(name,
		[]core.Port{core.NewInputPort("in", core.NewPortSpec("in", "windowAgg"))},
		core.Callbacks{
			OnMessage: func(_ context.Context, port string, msg core.Message, _ core.Emitter) error {
				if port != "in" || !msg.IsData() {
					return nil
				}
				agg := msg.Payload().(windowAgg)
				buf = append(buf, agg)
				if len(buf) > keep {
					buf = buf[1:]
				}
				if verbose {
					logger.Info("sink.item", "count", agg.count, "avg", agg.avg(), "min", agg.minV, "max", agg.maxV)
				}
				return nil
			},
			OnTick: func(_ context.Context, _ core.Emitter) error {
				now := time.Now()
				if now.Sub(lastSummary) < time.Second || len(buf) == 0 {
					return nil
				}
				lastSummary = now
				total := windowAgg{minV: math.Inf(1), maxV: math.Inf(-1)}
				for _, a := range buf {
					total = mergeWindow(total, a)
				}
				logger.Info("sink.summary", "window_size", len(buf), "total_count", total.count, "avg", total.avg(), "min", total.minV, "max", total.maxV)
				return nil
			},
		},
	)
}

func main() {
	rateHz := flag.Float64("rate-hz", 300.0, "sensor emit rate (items/sec)")
	tickMS := flag.Int("tick-ms", 10, "scheduler tick interval (ms)")
	maxBatch := flag.Int("max-batch", 16, "max messages per node per slice")
	timeoutS := flag.Float64("timeout-s", 5.0, "shutdown timeout when idle (s)")
	capSensorToAgg := flag.Int("cap-sensor-to-agg", 256, "capacity: sensor -> agg")
	capAggToSink := flag.Int("cap-agg-to-sink", 16, "capacity: agg -> sink")
	keep := flag.Int("keep", 10, "sink buffer size")
	quiet := flag.Bool("quiet", false, "reduce per-item logs")
	debug := flag.Bool("debug", false, "enable debug logs")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sensor := newSensorNode("sensor", *rateHz)
	agg := newWindowAggNode("agg", logger)
	sink := newSinkNode("sink", *keep, !*quiet, logger)

	sg, err := core.NewSubgraphFromNodes("streaming_coalesce", sensor, agg, sink)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}
	if err := sg.Connect(
		core.PortRef{Node: "sensor", Port: "out"},
		core.PortRef{Node: "agg", Port: "in"},
		*capSensorToAgg,
		core.BlockPolicy(),
	); err != nil {
		log.Fatalf("connect sensor->agg: %v", err)
	}
	if err := sg.Connect(
		core.PortRef{Node: "agg", Port: "out"},
		core.PortRef{Node: "sink", Port: "in"},
		*capAggToSink,
		core.CoalescePolicy(coalesceAgg),
	); err != nil {
		log.Fatalf("connect agg->sink: %v", err)
	}

	sched := core.NewScheduler(core.SchedulerConfig{
		TickIntervalMS:   *tickMS,
		MaxBatchPerNode:  *maxBatch,
		IdleSleepMS:      1,
		ShutdownTimeoutS: *timeoutS,
	}, observability.Hooks{
		Logger:  observability.NewSlogLogger(logger),
		Metrics: observability.NoOpMetrics{},
		Tracer:  observability.NoOpTracer{},
	})

	if err := sched.Register(sg); err != nil {
		log.Fatalf("register: %v", err)
	}

	logger.Info("demo.start", "rate_hz", *rateHz, "cap_agg_to_sink", *capAggToSink)
	fmt.Println("streaming coalesce: sensor -> agg -> [coalesce] -> sink")

	if err := sched.Run(context.Background()); err != nil {
		log.Fatalf("run: %v", err)
	}
	logger.Info("demo.stop")
}
