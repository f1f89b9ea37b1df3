// Package metrics exposes Prometheus collectors for diagram conversion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nomnoml"

// Item outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pipeline stage labels
const (
	StageRender    = "render"
	StageRasterize = "rasterize"
)

// Metrics holds the conversion collectors. A nil *Metrics records nothing.
type Metrics struct {
	itemsTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of processed items by output format and status",
			},
			[]string{"format", "status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of conversion pipeline stages in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"stage"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.itemsTotal, m.stageDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// ObserveItem counts one processed item
func (m *Metrics) ObserveItem(format, status string) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(format, status).Inc()
}

// ObserveStage records how long a pipeline stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
