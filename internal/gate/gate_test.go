package gate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

type fakeSuite struct {
	calls int
	err   error
}

func (f *fakeSuite) Invoke(context.Context) error {
	f.calls++
	return f.err
}

func TestRunIfNeeded_SkipsWithoutStagedChanges(t *testing.T) {
	suite := &fakeSuite{err: fmt.Errorf("must not run")}
	res, err := NewRunner(suite).RunIfNeeded(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, 0, suite.calls)
}

func TestRunIfNeeded_Passed(t *testing.T) {
	suite := &fakeSuite{}
	res, err := NewRunner(suite).RunIfNeeded(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, res.Status)
	assert.Equal(t, 1, suite.calls)
}

func TestRunIfNeeded_FailureIsGateError(t *testing.T) {
	suite := &fakeSuite{err: fmt.Errorf("2 failed")}
	_, err := NewRunner(suite).RunIfNeeded(context.Background(), true)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGate))
	assert.Equal(t, 1, suite.calls, "no retries")
}

func gateConfig(cmd, fallback []string) config.GateConfig {
	return config.GateConfig{Command: cmd, FallbackCommand: fallback, Timeout: config.Duration(time.Minute)}
}

func TestExecSuite(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, NewExecSuite(gateConfig([]string{"true"}, nil), dir).Invoke(context.Background()))

	err := NewExecSuite(gateConfig([]string{"sh", "-c", "echo FAILED test_x; exit 1"}, nil), dir).Invoke(context.Background())
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryGate, ce.Category())
	out, _ := ce.Context().GetString("output")
	assert.Contains(t, out, "FAILED test_x")
}

func TestExecSuite_Fallback(t *testing.T) {
	dir := t.TempDir()

	err := NewExecSuite(gateConfig([]string{"false"}, []string{"true"}), dir).Invoke(context.Background())
	require.NoError(t, err)

	err = NewExecSuite(gateConfig([]string{"false"}, []string{"false"}), dir).Invoke(context.Background())
	require.Error(t, err)

	err = NewExecSuite(gateConfig([]string{"false"}, []string{"no-such-python-xyz"}), dir).Invoke(context.Background())
	require.Error(t, err)
}
