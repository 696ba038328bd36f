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

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.ObserveStage("detect", 120*time.Millisecond)
	p.ObserveStage("detect", 80*time.Millisecond)
	p.ObserveStage("extract", time.Second)
	p.CountError("unsupported layout")

	assert.Equal(t, 2, testutil.CollectAndCount(p.stages))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.errors.WithLabelValues("unsupported layout")))

	expected := `
# HELP timetable_conversion_errors_total Failed conversions by failure kind.
# TYPE timetable_conversion_errors_total counter
timetable_conversion_errors_total{kind="unsupported layout"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "timetable_conversion_errors_total"))
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.ObserveStage("detect", time.Second)
	r.CountError("x")
}
