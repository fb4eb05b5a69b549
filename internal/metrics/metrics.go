package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of the constraint checking service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Result cache lookups by outcome: hit, miss, invalid
	CacheLookups *prometheus.CounterVec

	// Result cache writes by outcome: stored, skipped-dependencies, skipped-revisions, error
	CacheWrites *prometheus.CounterVec

	// Check results by constraint type and status
	CheckResults *prometheus.CounterVec

	// Duration of one entity check
	CheckLatency prometheus.Histogram

	// Type checks handed to the oracle after the local walk ran out of budget
	OracleFallbacks prometheus.Counter
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wbconstraints_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}),

		CacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wbconstraints_cache_writes_total",
			Help: "Result cache writes by outcome",
		}, []string{"outcome"}),

		CheckResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wbconstraints_check_results_total",
			Help: "Constraint check results by constraint type and status",
		}, []string{"constraint_type", "status"}),

		CheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wbconstraints_check_duration_seconds",
			Help:    "Duration of checking all constraints of one entity",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		OracleFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "wbconstraints_type_oracle_fallbacks_total",
			Help: "Type checks delegated to the oracle after the local walk exceeded its budget",
		}),
	}
}

func (m *Metrics) IncCacheLookup(outcome string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncCacheWrite(outcome string) {
	if m != nil {
		m.CacheWrites.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncCheckResult(constraintType, status string) {
	if m != nil {
		m.CheckResults.WithLabelValues(constraintType, status).Inc()
	}
}

func (m *Metrics) ObserveCheckLatency(d time.Duration) {
	if m != nil {
		m.CheckLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncOracleFallback() {
	if m != nil {
		m.OracleFallbacks.Inc()
	}
}
