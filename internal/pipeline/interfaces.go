package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/backtest"
	"git.home.luguber.info/inful/reportpub/internal/gate"
	"git.home.luguber.info/inful/reportpub/internal/git"
	"git.home.luguber.info/inful/reportpub/internal/history"
	"git.home.luguber.info/inful/reportpub/internal/index"
	"git.home.luguber.info/inful/reportpub/internal/notify"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// Resolver validates the requested strategy and mode.
type Resolver interface {
	Resolve(strategyID, mode string) (strategy.Resolved, error)
}

// Versioner writes new content as the canonical artifact.
type Versioner interface {
	Version(res strategy.Resolved, content backtest.ReportContent, ts time.Time) (artifact.Artifact, error)
}

// Archiver moves superseded artifacts of a slug into the archive.
type Archiver interface {
	Archive(slug, keep string) ([]string, error)
}

// Indexer rebuilds the index document.
type Indexer interface {
	Rebuild() (index.Document, error)
}

// Gate runs the test suite when changes are staged.
type Gate interface {
	RunIfNeeded(ctx context.Context, staged bool) (gate.Result, error)
}

// VCS stages, commits and pushes.
type VCS interface {
	Stage(ctx context.Context) (bool, error)
	Publish(ctx context.Context, message string) (git.CommitResult, error)
}

// Verifier checks HEAD parity after publication.
type Verifier interface {
	Verify(ctx context.Context) (git.State, error)
}

// HistoryStore records finished runs.
type HistoryStore interface {
	Record(ctx context.Context, r history.Record) error
}

// Notifier announces succeeded runs.
type Notifier interface {
	Published(ctx context.Context, ev notify.Event) error
}

// LockFunc acquires the exclusive run lock and returns its release function.
type LockFunc func(runID string) (release func() error, err error)
