package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordDenied(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDenied("expired")
	m.RecordDenied("expired")
	m.RecordDenied("invalid_signature")

	require.Equal(t, 3.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues(OutcomeDenied)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("expired")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RejectionsTotal.WithLabelValues("invalid_signature")))
}

func TestRecordDisclosed(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDisclosed(false)
	m.RecordDisclosed(true)

	require.Equal(t, 2.0, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues(OutcomeDisclosed)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.VerificationCodeDisclosedTotal))
}

func TestNew_SeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
