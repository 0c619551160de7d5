package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { Register(reg, nil) })

	Rollbacks.WithLabelValues("reactions").Inc()
	StaleDiscards.WithLabelValues("comments").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["engage_optimistic_rollbacks_total"])
	assert.True(t, names["engage_stale_results_discarded_total"])
	assert.False(t, names["engage_db_connection_pool_active"])

	assert.Panics(t, func() { Register(reg, nil) }, "double registration")
}

func TestRollbacksByComponent(t *testing.T) {
	before := testutil.ToFloat64(Rollbacks.WithLabelValues("views"))
	Rollbacks.WithLabelValues("views").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Rollbacks.WithLabelValues("views")))
}
