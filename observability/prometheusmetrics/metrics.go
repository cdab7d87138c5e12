// Package prometheusmetrics implements observability.MetricsRecorder using
// github.com/prometheus/client_golang, exposing edge depth gauges, put
// outcome counters, node dispatch counters, and latency histograms for the
// scheduling loop and shutdown drain.
package prometheusmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghostweasellabs/meridian-runtime-examples/observability"
)

// Recorder implements observability.MetricsRecorder.
type Recorder struct {
	edgePuts         *prometheus.CounterVec
	edgeDepth        *prometheus.GaugeVec
	edgeCapacity     *prometheus.GaugeVec
	nodeDispatches   *prometheus.CounterVec
	schedulerTick    prometheus.Histogram
	shutdownDuration prometheus.Histogram
}

// New builds a Recorder and registers its collectors against reg. A nil
// reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		edgePuts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "edge",
			Name:      "put_total",
			Help:      "Outcomes of TryPut calls against an edge, by edge and result.",
		}, []string{"edge", "result"}),
		edgeDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "meridian",
			Subsystem: "edge",
			Name:      "depth",
			Help:      "Current queued message count of an edge.",
		}, []string{"edge"}),
		edgeCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "meridian",
			Subsystem: "edge",
			Name:      "capacity",
			Help:      "Configured capacity of an edge.",
		}, []string{"edge"}),
		nodeDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meridian",
			Subsystem: "node",
			Name:      "dispatch_total",
			Help:      "Node dispatches, by node and priority lane.",
		}, []string{"node", "lane"}),
		schedulerTick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meridian",
			Subsystem: "scheduler",
			Name:      "tick_seconds",
			Help:      "Wall-clock duration of one scheduling round.",
			Buckets:   prometheus.DefBuckets,
		}),
		shutdownDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meridian",
			Subsystem: "scheduler",
			Name:      "shutdown_seconds",
			Help:      "Duration of the shutdown drain phase.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.edgePuts, r.edgeDepth, r.edgeCapacity, r.nodeDispatches, r.schedulerTick, r.shutdownDuration)
	return r
}

// EdgePut implements observability.MetricsRecorder.
func (r *Recorder) EdgePut(edge string, result string) {
	r.edgePuts.WithLabelValues(edge, result).Inc()
}

// EdgeDepth implements observability.MetricsRecorder.
func (r *Recorder) EdgeDepth(edge string, depth, capacity int) {
	r.edgeDepth.WithLabelValues(edge).Set(float64(depth))
	r.edgeCapacity.WithLabelValues(edge).Set(float64(capacity))
}

// NodeDispatch implements observability.MetricsRecorder.
func (r *Recorder) NodeDispatch(node, lane string, batchSize int) {
	r.nodeDispatches.WithLabelValues(node, lane).Add(float64(batchSize))
}

// SchedulerTick implements observability.MetricsRecorder.
func (r *Recorder) SchedulerTick(d time.Duration) {
	r.schedulerTick.Observe(d.Seconds())
}

// ShutdownDuration implements observability.MetricsRecorder.
func (r *Recorder) ShutdownDuration(d time.Duration) {
	r.shutdownDuration.Observe(d.Seconds())
}

var _ observability.MetricsRecorder = (*Recorder)(nil)
