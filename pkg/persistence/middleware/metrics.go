package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/relstore/pkg/ports"
)

// Metrics holds the Prometheus collectors of the backing store.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	BlobBytes  *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relstore",
				Subsystem: "kv",
				Name:      "operations_total",
				Help:      "Backing store operations by result (hit, miss, ok, error)",
			},
			[]string{"op", "result"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "relstore",
				Subsystem: "kv",
				Name:      "operation_duration_seconds",
				Help:      "Backing store operation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"op"},
		),
		BlobBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "relstore",
				Subsystem: "kv",
				Name:      "blob_bytes",
				Help:      "Size of table blobs read and written",
				Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
			},
			[]string{"op"},
		),
	}
}

type metricsMiddleware struct {
	next    ports.KV
	metrics *Metrics
}

// NewMetricsMiddleware records every Get and Set into m.
func NewMetricsMiddleware(m *Metrics) Middleware {
	return func(next ports.KV) ports.KV {
		return &metricsMiddleware{next: next, metrics: m}
	}
}

func (m *metricsMiddleware) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	value, ok, err := m.next.Get(ctx, key)
	m.metrics.Duration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		m.metrics.Operations.WithLabelValues("get", "error").Inc()
	case !ok:
		m.metrics.Operations.WithLabelValues("get", "miss").Inc()
	default:
		m.metrics.Operations.WithLabelValues("get", "hit").Inc()
		m.metrics.BlobBytes.WithLabelValues("get").Observe(float64(len(value)))
	}
	return value, ok, err
}

func (m *metricsMiddleware) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := m.next.Set(ctx, key, value)
	m.metrics.Duration.WithLabelValues("set").Observe(time.Since(start).Seconds())

	if err != nil {
		m.metrics.Operations.WithLabelValues("set", "error").Inc()
		return err
	}
	m.metrics.Operations.WithLabelValues("set", "ok").Inc()
	m.metrics.BlobBytes.WithLabelValues("set").Observe(float64(len(value)))
	return nil
}
