package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/config"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []string
	args  [][]string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, token string, args []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, token)
	d.args = append(d.args, args)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func TestScheduler_DispatchesEntries(t *testing.T) {
	d := &recordingDispatcher{}
	s, err := NewScheduler(d)
	require.NoError(t, err)
	s.RunImmediately()

	id, err := s.Add(config.ScheduleEntry{
		Name: "nightly-beta", Command: "publish",
		Strategy: "beta_engine_60_40", Mode: "capital",
		Every: config.Duration(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return d.count() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, "publish", d.calls[0])
	assert.Equal(t, []string{"beta_engine_60_40", "capital"}, d.args[0])
}

func TestScheduler_AddRejectsInvalidEntries(t *testing.T) {
	s, err := NewScheduler(&recordingDispatcher{})
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()

	_, err = s.Add(config.ScheduleEntry{Name: "none", Command: "verify"})
	assert.Error(t, err)
	_, err = s.Add(config.ScheduleEntry{Name: "bad-cron", Command: "verify", Cron: "not a cron"})
	assert.Error(t, err)
	_, err = s.Add(config.ScheduleEntry{Name: "weekday", Command: "reindex", Cron: "0 6 * * 1-5"})
	assert.NoError(t, err)
}

func TestArgs(t *testing.T) {
	assert.Nil(t, Args(config.ScheduleEntry{Command: "verify"}))
	assert.Equal(t, []string{"beta", "research"}, Args(config.ScheduleEntry{Strategy: "beta", Mode: "research"}))
}
