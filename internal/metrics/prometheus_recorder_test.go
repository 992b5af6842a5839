package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("versioning", 150*time.Millisecond)
	pr.IncStepResult("gating", ResultSkipped)
	pr.IncStepResult("gating", ResultSkipped)
	pr.IncRunOutcome("succeeded")
	pr.IncPushRetry()

	assert.InDelta(t, 2, testutil.ToFloat64(pr.stepResults.WithLabelValues("gating", "skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.runOutcomes.WithLabelValues("succeeded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.pushRetries), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 4)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("failed:gate")

	path := filepath.Join(t.TempDir(), "reportpub.prom")
	require.NoError(t, pr.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `reportpub_run_outcomes_total{outcome="failed:gate"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStepDuration("x", time.Second)
	r.IncStepResult("x", ResultFailed)
	r.IncRunOutcome("succeeded")
	r.IncPushRetry()
}
