package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()
	for _, family := range families {
		if family.GetName() == name {
			require.Len(t, family.GetMetric(), 1)
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric family %q not found", name)
	return 0
}

func TestCountersRegisteredAndIncremented(t *testing.T) {
	m := New()

	m.ListingsAdmitted.Add(3)
	m.ListingsDuplicate.Inc()
	m.ListingsFailed.Inc()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	assert.Equal(t, 3.0, counterValue(t, families, "monitor_listings_admitted_total"))
	assert.Equal(t, 1.0, counterValue(t, families, "monitor_listings_duplicate_total"))
	assert.Equal(t, 1.0, counterValue(t, families, "monitor_listings_failed_total"))
	assert.Equal(t, 0.0, counterValue(t, families, "monitor_emails_sent_total"))
}
