package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ForwarderMetrics holds all Prometheus metrics for the forwarder. A nil
// receiver is valid and records nothing, so unit tests can skip registration
// on the default registry.
type ForwarderMetrics struct {
	EventsTotal *prometheus.CounterVec
	BytesTotal  prometheus.Counter
}

// New initializes and registers the Prometheus metrics.
func New() *ForwarderMetrics {
	return &ForwarderMetrics{
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gelf_forwarder",
			Subsystem: "forward",
			Name:      "events_total",
			Help:      "Total number of audit events by kind and outcome.",
		}, []string{"kind", "status"}), // status: sent, build_error, send_error, throttled
		BytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gelf_forwarder",
			Subsystem: "forward",
			Name:      "bytes_total",
			Help:      "Total number of payload bytes handed to the UDP socket.",
		}),
	}
}

// IncEvent counts one event outcome.
func (m *ForwarderMetrics) IncEvent(kind, status string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, status).Inc()
}

// AddBytes counts payload bytes of a successful send.
func (m *ForwarderMetrics) AddBytes(n int) {
	if m == nil {
		return
	}
	m.BytesTotal.Add(float64(n))
}
