package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Command outcome label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics turns finished spans into per-command Prometheus series.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	BatchSize       prometheus.Histogram
}

// NewMetrics creates command metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redistrace_commands_total",
				Help: "Total number of traced Redis commands and batches",
			},
			[]string{"command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "redistrace_command_duration_seconds",
				Help:    "Duration of traced Redis commands and batches",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"command"},
		),
		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redistrace_batch_commands",
				Help:    "Number of commands per traced pipeline or transaction",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Commands, m.CommandDuration, m.BatchSize} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// Observe records a single finished span.
func (m *Metrics) Observe(span Span) {
	status := StatusOK
	if span.Failed() {
		status = StatusError
	}
	command := span.Command()
	m.Commands.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(span.Duration.Seconds())
	if span.IsBatch() {
		m.BatchSize.Observe(float64(len(span.Commands())))
	}
}

// Attach registers the metrics as a completion handler on t and returns the
// handler ID.
func (m *Metrics) Attach(t *Tracer) uint64 {
	return t.OnSpanComplete(m.Observe)
}
