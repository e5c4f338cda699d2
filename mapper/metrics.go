package mapper

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for mapper activity. A nil *Metrics
// records nothing.
type Metrics struct {
	writes     *prometheus.CounterVec
	reads      *prometheus.CounterVec
	warnings   *prometheus.CounterVec
	statements prometheus.Histogram
}

// NewMetrics creates and registers the mapper collectors. A nil registerer
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semmap",
			Name:      "writes_total",
			Help:      "Entity writes by result.",
		}, []string{"result"}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semmap",
			Name:      "reads_total",
			Help:      "Entity reads by result.",
		}, []string{"result"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semmap",
			Name:      "warnings_total",
			Help:      "Non-fatal mapping conditions by operation.",
		}, []string{"op"}),
		statements: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "semmap",
			Name:      "write_statements",
			Help:      "Statements produced per entity write.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.writes, m.reads, m.warnings, m.statements} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeWrite(statements, warnings int, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.statements.Observe(float64(statements))
	}
	m.warnings.WithLabelValues("write").Add(float64(warnings))
}

func (m *Metrics) observeRead(warnings int, err error) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(result(err)).Inc()
	m.warnings.WithLabelValues("read").Add(float64(warnings))
}
