package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusMiss    = "miss"
)

// Metrics holds the Prometheus metrics for the poll loop
type Metrics struct {
	commandsTotal        *prometheus.CounterVec
	applyDuration        *prometheus.HistogramVec
	malformedRecordTotal prometheus.Counter
	keysTotal            prometheus.Gauge
}

// NewMetrics creates and registers the poll loop metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shmkv_commands_total",
				Help: "Total number of commands applied from the channel",
			},
			[]string{"op", "status"},
		),

		applyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shmkv_apply_duration_seconds",
				Help:    "Time spent applying a command to the table",
				Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
			},
			[]string{"op"},
		),

		malformedRecordTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shmkv_malformed_records_total",
				Help: "Total number of channel records dropped because they did not decode",
			},
		),

		keysTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "shmkv_keys_total",
				Help: "Number of keys currently held in the table",
			},
		),
	}
}

// RecordCommand records an applied command. found is false for a get or
// delete of an absent key.
func (m *Metrics) RecordCommand(op string, found bool, duration time.Duration) {
	status := statusSuccess
	if !found {
		status = statusMiss
	}

	m.commandsTotal.WithLabelValues(op, status).Inc()
	m.applyDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordMalformed records a dropped record
func (m *Metrics) RecordMalformed() {
	m.malformedRecordTotal.Inc()
}

// UpdateKeys sets the current key count
func (m *Metrics) UpdateKeys(keys int) {
	m.keysTotal.Set(float64(keys))
}
