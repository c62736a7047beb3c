package profiler

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsAfterInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewProfiler(zap.New(core))
	p.updateInterval = 0

	assert.True(t, p.Tick())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "profile", logs.All()[0].Message)
}

func TestTickWithinInterval(t *testing.T) {
	p := NewProfiler(nil)
	p.updateInterval = time.Hour
	assert.False(t, p.Tick())
	assert.Equal(t, 1, p.frameCount)
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.FramesPresented.Inc()
	m.CacheMisses.Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesPresented))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)
}
