package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementValidation("valid", "", "legacy")
	m.IncrementValidation("invalid", "gender_mismatch", "modern")
	m.IncrementValidation("invalid", "gender_mismatch", "modern")
	m.IncrementDecode("legacy")
	m.IncrementLockouts()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("valid", "none", "legacy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Validations.WithLabelValues("invalid", "gender_mismatch", "modern")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("legacy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lockouts))
}

func TestMetrics_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.ObserveValidateDuration(3 * time.Millisecond)

	expected := `
# HELP nicgate_nic_lockouts_total Total number of identity numbers locked after repeated mismatches
# TYPE nicgate_nic_lockouts_total counter
nicgate_nic_lockouts_total 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nicgate_nic_lockouts_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ValidateDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementValidation("valid", "", "legacy")
		m.IncrementDecode("modern")
		m.IncrementLockouts()
		m.ObserveValidateDuration(time.Second)
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
