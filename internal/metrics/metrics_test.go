package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)

	r.ObserveTick(time.Millisecond)
	r.ObserveTick(time.Millisecond)
	r.IncStateUpdate()
	r.ObservePersist(10*time.Millisecond, nil)
	r.ObservePersist(10*time.Millisecond, errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stateUpdates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.persistFailures))
	n, err := testutil.GatherAndCount(reg, "vehiclesim_persist_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	second.IncStateUpdate()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.stateUpdates))
}
