package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Validations      *prometheus.CounterVec
	Decodes          *prometheus.CounterVec
	Lockouts         prometheus.Counter
	ValidateDuration prometheus.Histogram
}

// New registers the NIC metrics with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the NIC metrics with reg. Tests pass a fresh
// registry so constructors can run more than once per process.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nicgate_nic_validations_total",
			Help: "Total number of NIC claim validations by outcome",
		}, []string{"outcome", "failure", "format"}),
		Decodes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nicgate_nic_decodes_total",
			Help: "Total number of NIC decodes by format",
		}, []string{"format"}),
		Lockouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "nicgate_nic_lockouts_total",
			Help: "Total number of identity numbers locked after repeated mismatches",
		}),
		ValidateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nicgate_nic_validate_duration_seconds",
			Help:    "Time spent validating a NIC claim, including stores",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementValidation(outcome, failure, format string) {
	if m == nil {
		return
	}
	if failure == "" {
		failure = "none"
	}
	m.Validations.WithLabelValues(outcome, failure, format).Inc()
}

func (m *Metrics) IncrementDecode(format string) {
	if m == nil {
		return
	}
	m.Decodes.WithLabelValues(format).Inc()
}

func (m *Metrics) IncrementLockouts() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *Metrics) ObserveValidateDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ValidateDuration.Observe(d.Seconds())
}
