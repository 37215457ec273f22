// Package metrics wires the core's runtime counters into Prometheus, the
// way the teacher repo instruments etcd's request pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter and gauge the core components report
// against. A nil *Metrics is safe to use: every method degrades to a no-op,
// so components that are not given a Metrics still run correctly.
type Metrics struct {
	OpsSubmitted    *prometheus.CounterVec
	OpsCompleted    *prometheus.CounterVec
	Timeouts        prometheus.Counter
	OrderingFaults  prometheus.Counter
	WatchesFired    prometheus.Counter
	WatchesRegistered prometheus.Counter
	PendingDepth    prometheus.Gauge
}

// New registers a fresh set of collectors against reg and returns the
// bundle. Callers that don't want Prometheus at all can pass a nil
// *Metrics to every constructor instead of calling New.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "ops_submitted_total",
			Help:      "Operations submitted to the work queue, by operation name.",
		}, []string{"op"}),
		OpsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "ops_completed_total",
			Help:      "Operations whose future reached a terminal state, by outcome.",
		}, []string{"outcome"}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "pending_timeouts_total",
			Help:      "Pending cloud requests that expired before an indirect reply arrived.",
		}),
		OrderingFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "ordering_faults_total",
			Help:      "Indirect replies whose local index did not match the head of the pending list.",
		}),
		WatchesFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "watches_fired_total",
			Help:      "Watch callbacks delivered by the sorter.",
		}),
		WatchesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "watches_registered_total",
			Help:      "Watches added to the registry.",
		}),
		PendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "faaskeeper",
			Subsystem: "client",
			Name:      "pending_depth",
			Help:      "Number of cloud requests awaiting an indirect reply.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.OpsSubmitted, m.OpsCompleted, m.Timeouts, m.OrderingFaults,
			m.WatchesFired, m.WatchesRegistered, m.PendingDepth)
	}
	return m
}

func (m *Metrics) submitted(op string) {
	if m == nil {
		return
	}
	m.OpsSubmitted.WithLabelValues(op).Inc()
}

func (m *Metrics) completed(outcome string) {
	if m == nil {
		return
	}
	m.OpsCompleted.WithLabelValues(outcome).Inc()
}

// RecordSubmitted records that an operation left the work queue.
func (m *Metrics) RecordSubmitted(op string) { m.submitted(op) }

// RecordCompleted records the terminal outcome of a cloud request:
// "completed", "timed_out", or "failed_early".
func (m *Metrics) RecordCompleted(outcome string) { m.completed(outcome) }

// RecordTimeout increments the pending-timeout counter.
func (m *Metrics) RecordTimeout() {
	if m == nil {
		return
	}
	m.Timeouts.Inc()
}

// RecordOrderingFault increments the ordering-fault counter.
func (m *Metrics) RecordOrderingFault() {
	if m == nil {
		return
	}
	m.OrderingFaults.Inc()
}

// RecordWatchFired increments the watches-fired counter.
func (m *Metrics) RecordWatchFired() {
	if m == nil {
		return
	}
	m.WatchesFired.Inc()
}

// RecordWatchRegistered increments the watches-registered counter.
func (m *Metrics) RecordWatchRegistered() {
	if m == nil {
		return
	}
	m.WatchesRegistered.Inc()
}

// SetPendingDepth sets the current pending-list depth gauge.
func (m *Metrics) SetPendingDepth(n int) {
	if m == nil {
		return
	}
	m.PendingDepth.Set(float64(n))
}
