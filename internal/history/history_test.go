package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndList(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	start := time.Date(2026, 2, 14, 10, 5, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, Record{
		RunID: "r1", Strategy: "beta", Mode: "capital", StartedAt: start, FinishedAt: start.Add(time.Minute),
		Outcome: "succeeded", Artifact: "2026-02-14_10-05_beta.html", Committed: true, Pushed: true,
		LocalTip: "abc", RemoteTip: "abc",
	}))
	require.NoError(t, store.Record(ctx, Record{
		RunID: "r2", Strategy: "beta", Mode: "capital", StartedAt: start, FinishedAt: start.Add(2 * time.Minute),
		Outcome: "failed", FailedStep: "gating", ErrorKind: "gate", Message: "2 failed",
	}))

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].RunID)
	assert.Equal(t, "gating", all[0].FailedStep)
	assert.False(t, all[0].Pushed)
	assert.Equal(t, "r1", all[1].RunID)
	assert.True(t, all[1].Pushed)
	assert.Equal(t, start, all[1].StartedAt)

	last, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "r2", last[0].RunID)
}

func TestRecord_DuplicateRunID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	r := Record{RunID: "dup", Strategy: "s", Mode: "research", Outcome: "succeeded"}
	require.NoError(t, store.Record(t.Context(), r))
	assert.Error(t, store.Record(t.Context(), r))
}
