package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/backtest"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

var beta = strategy.Resolved{ID: "beta_engine_60_40", Slug: "beta_engine_60_40", Mode: strategy.ModeCapital}

func content(body string) backtest.ReportContent {
	return backtest.ReportContent{
		Report: []byte("<html><body>" + body + "</body></html>"),
		Manifest: backtest.Manifest{
			Strategy: "beta_engine_60_40", Mode: "capital", GeneratedBy: "test",
			Metrics: map[string]float64{"cagr": 0.1},
		},
	}
}

func ts(t *testing.T, v string) time.Time {
	t.Helper()
	parsed, err := ParseTimestamp(v)
	require.NoError(t, err)
	return parsed
}

func TestFormatAndParse(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	name := Format(time.Date(2026, 2, 14, 11, 5, 59, 0, loc), "beta_engine_60_40")
	assert.Equal(t, "2026-02-14_10-05_beta_engine_60_40.html", name)

	n, ok := Parse(name)
	require.True(t, ok)
	assert.Equal(t, "beta_engine_60_40", n.Slug)
	assert.Equal(t, time.Date(2026, 2, 14, 10, 5, 0, 0, time.UTC), n.Created)

	for _, legacy := range []string{"old_report.html", "2026-02-14_10-05_.html", "2026-13-40_10-05_x.html", "2026-02-14_10-05_x.htm", "2026-02-14_10-05_x.manifest.json"} {
		_, ok := Parse(legacy)
		assert.False(t, ok, legacy)
	}

	require.NoError(t, EnsureName(name, "beta_engine_60_40"))
	assert.Error(t, EnsureName(name, "other"))
	assert.Equal(t, "2026-02-14_10-05_beta_engine_60_40.manifest.json", SidecarName(name))
	assert.True(t, IsSidecar(SidecarName(name)))
}

func TestParseTimestamp(t *testing.T) {
	_, err := ParseTimestamp("2026-02-14 10:05")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestVersioner_WritesArtifactAndSidecar(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	v := NewVersioner(dir)

	a, err := v.Version(beta, content("one"), ts(t, "2026-02-14_10-05"))
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14_10-05_beta_engine_60_40.html", a.Filename)
	assert.Equal(t, Hash(a.Content), a.Hash)

	data, err := os.ReadFile(filepath.Join(dir, a.Filename))
	require.NoError(t, err)
	assert.Equal(t, a.Content, data)

	raw, err := os.ReadFile(filepath.Join(dir, a.Sidecar))
	require.NoError(t, err)
	m, err := backtest.DecodeManifest(raw)
	require.NoError(t, err)
	assert.Equal(t, "beta_engine_60_40", m.Strategy)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files may remain")
}

func TestVersioner_SameMinuteOverwrites(t *testing.T) {
	dir := t.TempDir()
	v := NewVersioner(dir)
	when := ts(t, "2026-02-14_10-05")

	_, err := v.Version(beta, content("one"), when)
	require.NoError(t, err)
	a, err := v.Version(beta, content("two"), when.Add(30*time.Second))
	require.NoError(t, err)

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "two")
}

func TestArchiver_MovesPriorArtifacts(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	v := NewVersioner(dir)

	first, err := v.Version(beta, content("one"), ts(t, "2026-02-14_10-05"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-02-14_09-00_other.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_report.html"), []byte("x"), 0o600))
	second, err := v.Version(beta, content("two"), ts(t, "2026-02-14_11-20"))
	require.NoError(t, err)

	moved, err := NewArchiver(dir, archive).Archive(beta.Slug, second.Filename)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Filename}, moved)

	assert.NoFileExists(t, filepath.Join(dir, first.Filename))
	assert.NoFileExists(t, filepath.Join(dir, first.Sidecar))
	assert.FileExists(t, filepath.Join(archive, first.Filename))
	assert.FileExists(t, filepath.Join(archive, first.Sidecar))
	assert.FileExists(t, filepath.Join(dir, second.Filename))
	assert.FileExists(t, filepath.Join(dir, "2026-02-14_09-00_other.html"))
	assert.FileExists(t, filepath.Join(dir, "old_report.html"))
}

func TestArchiver_CreatesEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	moved, err := NewArchiver(dir, archive).Archive("beta", "")
	require.NoError(t, err)
	assert.Empty(t, moved)
	assert.DirExists(t, archive)
}

func TestArchiver_ExistingArchiveEntry(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	require.NoError(t, os.MkdirAll(archive, 0o750))
	name := "2026-02-14_10-05_beta.html"

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("same"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(archive, name), []byte("same"), 0o600))
	moved, err := NewArchiver(dir, archive).Archive("beta", "")
	require.NoError(t, err)
	assert.Equal(t, []string{name}, moved)
	assert.NoFileExists(t, filepath.Join(dir, name))

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("different"), 0o600))
	_, err = NewArchiver(dir, archive).Archive("beta", "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
	data, _ := os.ReadFile(filepath.Join(archive, name))
	assert.Equal(t, "same", string(data))
	assert.FileExists(t, filepath.Join(dir, name))
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "f.html"), []byte("x"), 0o644)
	require.Error(t, err)
}
