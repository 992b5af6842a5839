// Package gate runs the automated test suite that guards every commit.
package gate

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/proc"
)

// Status is the outcome of a gate evaluation.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusPassed  Status = "passed"
)

// Result describes a gate evaluation that did not fail.
type Result struct {
	Status   Status
	Duration time.Duration
}

// Suite invokes the test suite once. A nil error means the suite passed.
type Suite interface {
	Invoke(ctx context.Context) error
}

// Runner decides whether the suite runs and translates failures.
type Runner struct {
	suite Suite
}

// NewRunner wraps suite.
func NewRunner(suite Suite) *Runner {
	return &Runner{suite: suite}
}

// RunIfNeeded runs the suite only when staged changes exist. A failing suite is
// a gate error; there are no retries.
func (r *Runner) RunIfNeeded(ctx context.Context, staged bool) (Result, error) {
	if !staged {
		slog.Info("Gate skipped, no staged changes")
		return Result{Status: StatusSkipped}, nil
	}
	start := time.Now()
	if err := r.suite.Invoke(ctx); err != nil {
		if errors.HasCategory(err, errors.CategoryGate) {
			return Result{}, err
		}
		return Result{}, errors.GateError("test gate failed").WithCause(err).Build()
	}
	d := time.Since(start)
	slog.Info("Gate passed", logfields.DurationMS(float64(d.Milliseconds())))
	return Result{Status: StatusPassed, Duration: d}, nil
}

// ExecSuite runs the configured gate command in the repository root. When the
// primary command fails and a fallback is configured and present, the fallback
// runs once.
type ExecSuite struct {
	command  []string
	fallback []string
	dir      string
	timeout  time.Duration
}

// NewExecSuite creates a subprocess suite from the gate configuration.
func NewExecSuite(cfg config.GateConfig, repoRoot string) *ExecSuite {
	return &ExecSuite{
		command:  cfg.Command,
		fallback: cfg.FallbackCommand,
		dir:      repoRoot,
		timeout:  cfg.Timeout.Std(),
	}
}

// Invoke implements Suite.
func (s *ExecSuite) Invoke(ctx context.Context) error {
	res, err := proc.Run(ctx, s.command, s.dir, s.timeout)
	if err == nil {
		return nil
	}
	if len(s.fallback) > 0 && proc.Exists(s.fallback) {
		slog.Warn("Gate command failed, trying fallback",
			logfields.Command(s.command),
			logfields.Error(err))
		res, err = proc.Run(ctx, s.fallback, s.dir, s.timeout)
		if err == nil {
			return nil
		}
	}
	return errors.GateError("test gate failed").
		WithCause(err).
		WithContext("exit_code", res.ExitCode).
		WithContext("output", proc.Tail(res.Output(), 40)).
		Build()
}
