package pipeline

import (
	"log/slog"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/backtest"
	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/gate"
	"git.home.luguber.info/inful/reportpub/internal/git"
	"git.home.luguber.info/inful/reportpub/internal/history"
	"git.home.luguber.info/inful/reportpub/internal/index"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/metrics"
	"git.home.luguber.info/inful/reportpub/internal/notify"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// NewFromConfig assembles the production pipeline from cfg. The returned
// closer releases the history store and the notifier connection.
func NewFromConfig(cfg *config.Config, recorder metrics.Recorder) (*Pipeline, func(), error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	client, err := git.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	indexer, err := index.NewBuilder(cfg.PublishDir(), cfg.ArchiveDir, cfg.IndexFile, cfg.Index.Title, cfg.Index.Intro)
	if err != nil {
		return nil, nil, err
	}

	publisher := git.NewPublisher(client, cfg.Git).WithRetryObserver(func(attempt int) {
		recorder.IncPushRetry()
		slog.Warn("Retrying push", logfields.Attempt(attempt), logfields.Remote(cfg.Git.Remote))
	})

	c := Components{
		Resolver:  strategy.NewResolver(cfg),
		Backtest:  backtest.NewExecRunner(cfg.Backtest),
		Versioner: artifact.NewVersioner(cfg.PublishDir()),
		Archiver:  artifact.NewArchiver(cfg.PublishDir(), cfg.ArchivePath()),
		Indexer:   indexer,
		Gate:      gate.NewRunner(gate.NewExecSuite(cfg.Gate, cfg.RepoRoot)),
		VCS:       publisher,
		Verifier:  git.NewParityVerifier(client, cfg.Git.PushTimeout.Std()),
		Lock:      ClientLock(client),
		Recorder:  recorder,

		CommitMessage: cfg.Git.CommitMessage,
		SiteURL:       cfg.SiteURL,
	}

	var closers []func()
	if cfg.History.Path != "" {
		store, herr := history.NewSQLiteStore(cfg.History.Path)
		if herr != nil {
			return nil, nil, herr
		}
		c.History = store
		closers = append(closers, func() { _ = store.Close() })
	}
	if cfg.Notify.Enabled {
		n, nerr := notify.NewNATSNotifier(cfg.Notify)
		if nerr != nil {
			// Notifications never decide a run outcome.
			slog.Warn("Notifications disabled", logfields.Error(nerr))
		} else {
			c.Notifier = n
			closers = append(closers, n.Close)
		}
	}

	closer := func() {
		for _, fn := range closers {
			fn()
		}
	}
	return New(c), closer, nil
}

// ClientLock adapts the repository run lock of client to a LockFunc.
func ClientLock(client *git.Client) LockFunc {
	return func(runID string) (func() error, error) {
		l, err := client.AcquireLock(runID)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}
}
