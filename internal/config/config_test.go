package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

const minimalYAML = `
strategies:
  - id: beta_engine_60_40
backtest:
  command: ["python3", "backtest.py"]
gate:
  command: ["go", "test", "./..."]
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "outputs/reports", cfg.PublishRoot)
	assert.Equal(t, "archive", cfg.ArchiveDir)
	assert.Equal(t, "index.html", cfg.IndexFile)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, "main", cfg.Git.Branch)
	assert.Equal(t, 1, cfg.Git.Retry.Retries())
	assert.Equal(t, RetryBackoffFixed, cfg.Git.Retry.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Git.PushTimeout.Std())
	assert.Equal(t, 15*time.Minute, cfg.Backtest.Timeout.Std())
	assert.Equal(t, []string{"sandbox"}, cfg.BlockedStrategies)
	assert.Equal(t, "Publish {strategy} report", cfg.Git.CommitMessage)
}

func TestParseDurationsAndRetryOverride(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
git:
  push_timeout: 45s
  retry:
    max_retries: 0
    backoff: Exponential
`))
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Git.PushTimeout.Std())
	assert.Equal(t, 0, cfg.Git.Retry.Retries())
	assert.Equal(t, RetryBackoffExponential, cfg.Git.Retry.Backoff)
}

func TestParseExpandsEnvAndOverrides(t *testing.T) {
	t.Setenv("REPORT_REMOTE_NAME", "upstream")
	t.Setenv(EnvBranch, "pages")

	cfg, err := Parse([]byte(minimalYAML + `
git:
  remote: ${REPORT_REMOTE_NAME}
  branch: main
`))
	require.NoError(t, err)
	assert.Equal(t, "upstream", cfg.Git.Remote)
	assert.Equal(t, "pages", cfg.Git.Branch, "environment override wins over file value")
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown field":    minimalYAML + "bogus: 1\n",
		"bad duration":     minimalYAML + "git:\n  push_timeout: soon\n",
		"bad mode":         "strategies:\n  - id: a\n    modes: [paper]\nbacktest:\n  command: [x]\ngate:\n  command: [y]\n",
		"bad slug":         "strategies:\n  - id: a\n    slug: 'Bad Slug'\nbacktest:\n  command: [x]\ngate:\n  command: [y]\n",
		"duplicate id":     "strategies:\n  - id: a\n  - id: a\nbacktest:\n  command: [x]\ngate:\n  command: [y]\n",
		"normalized dup":   "strategies:\n  - id: beta-x\n  - id: beta_x\nbacktest:\n  command: [x]\ngate:\n  command: [y]\n",
		"no strategies":    "backtest:\n  command: [x]\ngate:\n  command: [y]\n",
		"no gate":          "strategies:\n  - id: a\nbacktest:\n  command: [x]\n",
		"nested archive":   minimalYAML + "archive_dir: a/b\n",
		"bad backoff":      minimalYAML + "git:\n  retry:\n    backoff: random\n",
		"notify no url":    minimalYAML + "notify:\n  enabled: true\n",
		"schedule both":    minimalYAML + "schedule:\n  - name: n\n    command: publish\n    every: 1h\n    cron: '0 * * * *'\n",
		"negative retry":   minimalYAML + "git:\n  retry:\n    max_retries: -1\n",
		"unsupported auth": minimalYAML + "git:\n  auth:\n    type: kerberos\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "expected config category, got %v", err)
		})
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reportpub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"repo_root: repo\nhistory:\n  path: state/history.db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "repo"), cfg.RepoRoot)
	assert.Equal(t, filepath.Join(dir, "repo", "outputs", "reports"), cfg.PublishDir())
	assert.Equal(t, filepath.Join(dir, "repo", "outputs", "reports", "archive"), cfg.ArchivePath())
	assert.Equal(t, filepath.Join(dir, "repo", "outputs", "reports", "index.html"), cfg.IndexPath())
	assert.Equal(t, filepath.Join(dir, "state", "history.db"), cfg.History.Path)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPORTPUB_TEST_TITLE", "")
	require.NoError(t, os.Unsetenv("REPORTPUB_TEST_TITLE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPORTPUB_TEST_TITLE=From Env\n"), 0o600))
	path := filepath.Join(dir, "reportpub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"index:\n  title: ${REPORTPUB_TEST_TITLE}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Index.Title)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInitRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportpub.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "beta_engine_60_40", cfg.Strategies[0].ID)
	assert.Equal(t, 1, cfg.Git.Retry.Retries())

	err = Init(path, false)
	require.Error(t, err, "existing file must not be overwritten without force")
	require.NoError(t, Init(path, true))
}
