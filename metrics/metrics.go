// Package metrics exposes pipeline-level gauges and counters through
// prometheus/client_golang, wired directly against a coordinator.Coordinator
// rather than plumbed through every handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles the disruptor's prometheus collectors. Register it with
// a prometheus.Registerer (or the default registry) before starting a
// pipeline.
type Registry struct {
	EventsPublished prometheus.Counter
	EventsConsumed  prometheus.Counter
	Backlog         prometheus.Gauge
}

// NewRegistry constructs a Registry with metric names namespaced under
// "disruptor".
func NewRegistry() *Registry {
	return &Registry{
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disruptor",
			Name:      "events_published_total",
			Help:      "Total events published to the ring buffer.",
		}),
		EventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disruptor",
			Name:      "events_consumed_total",
			Help:      "Total events observed by the terminal stage of the pipeline.",
		}),
		Backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disruptor",
			Name:      "backlog",
			Help:      "1 if the cursor is ahead of the slowest consumer's sequence, else 0.",
		}),
	}
}

// MustRegister registers every collector in r with reg.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.EventsPublished, r.EventsConsumed, r.Backlog)
}

// backlogSource is satisfied by coordinator.Coordinator without importing
// it here, keeping this package's dependency surface to prometheus alone.
type backlogSource interface {
	HasBacklog() bool
}

// SampleBacklog sets the Backlog gauge to 1 if src reports backlog, 0
// otherwise. Coarser than an exact count (the coordinator doesn't expose
// one) but enough to alert on sustained backpressure.
func (r *Registry) SampleBacklog(src backlogSource) {
	if src.HasBacklog() {
		r.Backlog.Set(1)
	} else {
		r.Backlog.Set(0)
	}
}
