package git

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/retry"
)

// CommitResult describes what Publish did.
type CommitResult struct {
	Committed bool
	Pushed    bool
	Commit    string
	Retries   int
}

// Publisher stages, commits and pushes to the fixed remote and branch.
type Publisher struct {
	client      *Client
	policy      retry.Policy
	pushTimeout time.Duration
	onRetry     func(attempt int)
}

// NewPublisher creates a publisher using the git section of cfg.
func NewPublisher(client *Client, cfg config.GitConfig) *Publisher {
	return &Publisher{
		client:      client,
		policy:      retry.FromConfig(cfg.Retry),
		pushTimeout: cfg.PushTimeout.Std(),
	}
}

// WithRetryObserver registers a callback invoked before every push retry.
func (p *Publisher) WithRetryObserver(fn func(attempt int)) *Publisher {
	p.onRetry = fn
	return p
}

// Stage stages all changes and reports whether anything is staged.
func (p *Publisher) Stage(_ context.Context) (bool, error) {
	if err := p.client.StageAll(); err != nil {
		return false, err
	}
	return p.client.HasStaged()
}

// Publish commits the staged changes with message and pushes. Without staged
// changes it neither commits nor pushes. A failed push leaves Pushed false.
func (p *Publisher) Publish(ctx context.Context, message string) (CommitResult, error) {
	staged, err := p.client.HasStaged()
	if err != nil {
		return CommitResult{}, err
	}
	if !staged {
		slog.Info("Nothing staged, skipping commit and push")
		return CommitResult{}, nil
	}

	hash, err := p.client.Commit(message)
	if err != nil {
		return CommitResult{}, err
	}
	res := CommitResult{Committed: true, Commit: hash}

	retries, err := withRetry(ctx, "push", p.policy, p.pushTimeout, p.onRetry, p.client.Push)
	res.Retries = retries
	if err != nil {
		// A push that exhausted its retries is a vcs failure; the transient
		// classification stays on the cause.
		return res, errors.VCSError("push failed").
			WithCause(err).
			WithContext("pushed", false).
			WithContext("retries", retries).
			WithContext("remote", p.client.remote).
			Build()
	}
	res.Pushed = true
	slog.Info("Pushed changes",
		logfields.Remote(p.client.remote),
		logfields.Branch(p.client.branch),
		logfields.Commit(hash))
	return res, nil
}

// FormatMessage fills the {strategy} placeholder of a commit message template.
func FormatMessage(template, strategyID string) string {
	return strings.ReplaceAll(template, "{strategy}", strategyID)
}
