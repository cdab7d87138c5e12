// Command hello_graph wires a bounded producer to a collecting consumer
// through a small, deliberately undersized queue, to demonstrate Block
// backpressure end to end.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghostweasellabs/meridian-runtime-examples/core"
	"github.com/ghostweasellabs/meridian-runtime-examples/nodes"
	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

func buildGraph(maxCount int) (*core.Subgraph, *nodes.Collector, error) {
	producer := nodes.NewDataProducer("producer", nodes.CounterSource(0, maxCount))
	consumerNode, consumer := nodes.NewCollector("consumer", func(item any) {
		fmt.Println(item)
	})

	sg, err := core.NewSubgraphFromNodes("hello_graph", producer, consumerNode)
	if err != nil {
		return nil, nil, err
	}

	// A capacity of 3 against a producer ticking every 10ms demonstrates
	// backpressure: the consumer's own dispatch cadence governs how fast
	// the queue drains.
	if err := sg.Connect(
		core.PortRef{Node: "producer", Port: nodes.OutputPort},
		core.PortRef{Node: "consumer", Port: nodes.InputPort},
		3,
		core.BlockPolicy(),
	); err != nil {
		return nil, nil, err
	}

	return sg, consumer, nil
}

func main() {
	fmt.Println("hello graph: producer -> [capacity=3] -> consumer")

	const expected = 5
	sg, consumer, err := buildGraph(expected)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}

	sched := core.NewScheduler(core.SchedulerConfig{
		TickIntervalMS:   10,
		ShutdownTimeoutS: 2.0,
	}, observability.NewNoOpHooks())

	if err := sched.Register(sg); err != nil {
		log.Fatalf("register: %v", err)
	}

	start := time.Now()
	if err := sched.Run(context.Background()); err != nil {
		log.Fatalf("run: %v", err)
	}
	elapsed := time.Since(start)

	actual := consumer.Len()
	fmt.Printf("\nprocessed %d/%d messages in %s\n", actual, expected, elapsed)
	if actual != expected {
		log.Fatalf("mismatch: expected %d, got %d", expected, actual)
	}
}
