package sheetproc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-operation counters and latencies. A nil *Metrics
// records nothing.
type Metrics struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	cellsDeactivated prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheetproc_operations_total",
				Help: "Total number of handler operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sheetproc_operation_duration_seconds",
				Help:    "Duration of handler operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		cellsDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheetproc_cells_deactivated_total",
			Help: "Total number of status cells switched to the inactive marker",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.cellsDeactivated)
	}
	return m
}

// observe records one finished operation
func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) deactivated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cellsDeactivated.Add(float64(n))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "remote"
	}
}
