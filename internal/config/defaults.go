package config

import "time"

const (
	defaultRepoRoot        = "."
	defaultPublishRoot     = "outputs/reports"
	defaultArchiveDir      = "archive"
	defaultIndexFile       = "index.html"
	defaultRemote          = "origin"
	defaultBranch          = "main"
	defaultAuthorName      = "reportpub"
	defaultAuthorEmail     = "reportpub@localhost"
	defaultCommitMessage   = "Publish {strategy} report"
	defaultIndexTitle      = "MS Report Dashboard"
	defaultNotifySubject   = "reportpub.published"
	defaultBacktestTimeout = 15 * time.Minute
	defaultGateTimeout     = 10 * time.Minute
	defaultPushTimeout     = 2 * time.Minute
)

// DefaultBlockedStrategies may never be published.
var DefaultBlockedStrategies = []string{"sandbox"}

func applyDefaults(cfg *Config) {
	if cfg.RepoRoot == "" {
		cfg.RepoRoot = defaultRepoRoot
	}
	if cfg.PublishRoot == "" {
		cfg.PublishRoot = defaultPublishRoot
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = defaultArchiveDir
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = defaultIndexFile
	}
	if cfg.BlockedStrategies == nil {
		cfg.BlockedStrategies = append([]string(nil), DefaultBlockedStrategies...)
	}

	if cfg.Backtest.Timeout == 0 {
		cfg.Backtest.Timeout = Duration(defaultBacktestTimeout)
	}
	if cfg.Gate.Timeout == 0 {
		cfg.Gate.Timeout = Duration(defaultGateTimeout)
	}

	g := &cfg.Git
	if g.Remote == "" {
		g.Remote = defaultRemote
	}
	if g.Branch == "" {
		g.Branch = defaultBranch
	}
	if g.PushTimeout == 0 {
		g.PushTimeout = Duration(defaultPushTimeout)
	}
	if g.AuthorName == "" {
		g.AuthorName = defaultAuthorName
	}
	if g.AuthorEmail == "" {
		g.AuthorEmail = defaultAuthorEmail
	}
	if g.CommitMessage == "" {
		g.CommitMessage = defaultCommitMessage
	}
	g.Retry.applyDefaults()

	if cfg.Index.Title == "" {
		cfg.Index.Title = defaultIndexTitle
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubject
	}
}
