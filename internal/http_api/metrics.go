package http_api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poynt/relay/internal/models"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"

	// unknownType labels requests whose type is not a supported operation
	unknownType = "invalid"
)

type metrics struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	registry   *prometheus.Registry
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poynt_relay",
		Name:      "operations_total",
		Help:      "Total gasless operations handled by the relay.",
	}, []string{"type", "outcome"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poynt_relay",
		Name:      "operation_duration_seconds",
		Help:      "Duration of gasless operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})
	registry.MustRegister(operations, durations)
	return &metrics{
		operations: operations,
		durations:  durations,
		registry:   registry,
	}
}

func (m *metrics) observe(t models.OperationType, status int, elapsed time.Duration) {
	label := typeLabel(t)
	m.operations.WithLabelValues(label, outcome(status)).Inc()
	m.durations.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// typeLabel bounds label cardinality to the supported operation types
func typeLabel(t models.OperationType) string {
	for _, known := range models.OperationTypes {
		if t == known {
			return string(t)
		}
	}
	return unknownType
}

func outcome(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return outcomeSuccess
	case status < http.StatusInternalServerError:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
