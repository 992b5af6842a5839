// Package pipeline orchestrates one publish run: resolve the strategy, run the
// backtest, version and archive the artifact, rebuild the index, gate, commit,
// push and verify HEAD parity. Steps run strictly in order and the first
// failure aborts the run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/reportpub/internal/backtest"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/git"
	"git.home.luguber.info/inful/reportpub/internal/history"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/metrics"
	"git.home.luguber.info/inful/reportpub/internal/notify"
)

// Components are the collaborators of a pipeline. History and Notifier are
// optional; all others are required.
type Components struct {
	Resolver  Resolver
	Backtest  backtest.Runner
	Versioner Versioner
	Archiver  Archiver
	Indexer   Indexer
	Gate      Gate
	VCS       VCS
	Verifier  Verifier
	Lock      LockFunc

	History  HistoryStore
	Notifier Notifier
	Recorder metrics.Recorder

	// CommitMessage is the template used when a request carries no message.
	CommitMessage string
	SiteURL       string
}

// Pipeline executes publish runs. It holds no per-run state.
type Pipeline struct {
	c     Components
	now   func() time.Time
	newID func() string
}

// New creates a pipeline over c.
func New(c Components) *Pipeline {
	if c.Recorder == nil {
		c.Recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{c: c, now: time.Now, newID: uuid.NewString}
}

// WithClock replaces the clock used for run timestamps and default artifact names.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

type stepFunc func(ctx context.Context, run *Run, ex *execution) (StepResult, error)

type stepDef struct {
	name StepName
	fn   stepFunc
}

// execution carries intermediate values between steps of one run.
type execution struct {
	content backtest.ReportContent
}

func (p *Pipeline) steps() []stepDef {
	return []stepDef{
		{StepResolving, p.resolve},
		{StepBacktesting, p.backtest},
		{StepVersioning, p.version},
		{StepArchiving, p.archive},
		{StepIndexing, p.index},
		{StepGating, p.gate},
		{StepPublishing, p.publish},
		{StepVerifying, p.verify},
	}
}

// Execute performs one run for req. The returned Run is always non-nil; the
// error is the *StepError of the failing step, or nil on success.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Run, error) {
	run := &Run{
		ID:        p.newID(),
		Request:   req,
		State:     StatePending,
		StartedAt: p.now().UTC(),
	}
	log := slog.With(logfields.RunID(run.ID), logfields.Strategy(req.StrategyID), logfields.Mode(req.Mode))
	log.Info("Publish run started")

	release, err := p.c.Lock(run.ID)
	if err != nil {
		run.Err = newStepError(StepLock, err)
		p.finish(ctx, run, log)
		return run, run.Err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			log.Warn("Failed to release run lock", logfields.Error(rerr))
		}
	}()

	// Steps are not interrupted once started; each component bounds its own work.
	stepCtx := context.WithoutCancel(ctx)
	ex := &execution{}
	for _, st := range p.steps() {
		if cerr := ctx.Err(); cerr != nil {
			run.Err = &StepError{Step: st.name, Kind: errors.CategoryRuntime, Err: cerr}
			log.Warn("Publish run canceled", logfields.Step(string(st.name)))
			break
		}

		run.Current = st.name
		t0 := time.Now()
		result, serr := st.fn(stepCtx, run, ex)
		dur := time.Since(t0)
		if serr != nil {
			result = StepFailed
		}
		run.record(st.name, result, dur)
		p.c.Recorder.ObserveStepDuration(string(st.name), dur)
		p.c.Recorder.IncStepResult(string(st.name), result.label())

		if serr != nil {
			run.Err = newStepError(st.name, serr)
			log.Error("Step failed",
				logfields.Step(string(st.name)),
				slog.String("kind", string(run.Err.Kind)),
				logfields.Error(serr))
			break
		}
		log.Debug("Step finished",
			logfields.Step(string(st.name)),
			slog.String("result", string(result)),
			logfields.DurationMS(float64(dur.Milliseconds())))
	}

	p.finish(ctx, run, log)
	if run.Err != nil {
		return run, run.Err
	}
	return run, nil
}

func (p *Pipeline) finish(ctx context.Context, run *Run, log *slog.Logger) {
	run.EndedAt = p.now().UTC()
	if run.Err != nil {
		run.State = StateFailed
	} else {
		run.State = StateSucceeded
	}
	p.c.Recorder.IncRunOutcome(string(run.State))
	log.Info("Publish run finished",
		logfields.Outcome(run.Outcome()),
		logfields.DurationMS(float64(run.EndedAt.Sub(run.StartedAt).Milliseconds())))

	bg := context.WithoutCancel(ctx)
	if p.c.History != nil {
		if err := p.c.History.Record(bg, historyRecord(run)); err != nil {
			log.Warn("Failed to record run history", logfields.Error(err))
		}
	}
	if run.Succeeded() && p.c.Notifier != nil {
		ev := notify.Event{
			RunID:     run.ID,
			Strategy:  run.Resolved.ID,
			Mode:      string(run.Resolved.Mode),
			Artifact:  run.Artifact.Filename,
			Commit:    run.Commit.Commit,
			Pushed:    run.Commit.Pushed,
			SiteURL:   p.c.SiteURL,
			Timestamp: run.EndedAt,
		}
		if err := p.c.Notifier.Published(bg, ev); err != nil {
			log.Warn("Failed to send publish notification", logfields.Error(err))
		}
	}
}

func historyRecord(run *Run) history.Record {
	rec := history.Record{
		RunID:      run.ID,
		Strategy:   run.Request.StrategyID,
		Mode:       run.Request.Mode,
		StartedAt:  run.StartedAt,
		FinishedAt: run.EndedAt,
		Outcome:    string(run.State),
		Artifact:   run.Artifact.Filename,
		Committed:  run.Commit.Committed,
		Pushed:     run.Commit.Pushed,
		LocalTip:   run.Git.LocalTip,
		RemoteTip:  run.Git.RemoteTip,
	}
	if run.Resolved.ID != "" {
		rec.Strategy = run.Resolved.ID
		rec.Mode = string(run.Resolved.Mode)
	}
	if run.Err != nil {
		rec.FailedStep = string(run.Err.Step)
		rec.ErrorKind = string(run.Err.Kind)
		rec.Message = run.Err.Err.Error()
	}
	return rec
}

func (p *Pipeline) resolve(_ context.Context, run *Run, _ *execution) (StepResult, error) {
	res, err := p.c.Resolver.Resolve(run.Request.StrategyID, run.Request.Mode)
	if err != nil {
		return StepFailed, err
	}
	run.Resolved = res
	return StepSucceeded, nil
}

func (p *Pipeline) backtest(ctx context.Context, run *Run, ex *execution) (StepResult, error) {
	content, err := p.c.Backtest.Run(ctx, run.Resolved)
	if err != nil {
		return StepFailed, err
	}
	ex.content = content
	return StepSucceeded, nil
}

func (p *Pipeline) version(_ context.Context, run *Run, ex *execution) (StepResult, error) {
	ts := run.Request.Timestamp
	if ts.IsZero() {
		ts = p.now()
	}
	art, err := p.c.Versioner.Version(run.Resolved, ex.content, ts.UTC())
	if err != nil {
		return StepFailed, err
	}
	run.Artifact = art
	return StepSucceeded, nil
}

func (p *Pipeline) archive(_ context.Context, run *Run, _ *execution) (StepResult, error) {
	moved, err := p.c.Archiver.Archive(run.Resolved.Slug, run.Artifact.Filename)
	if err != nil {
		return StepFailed, err
	}
	run.Archived = moved
	if len(moved) == 0 {
		return StepSkipped, nil
	}
	return StepSucceeded, nil
}

func (p *Pipeline) index(_ context.Context, run *Run, _ *execution) (StepResult, error) {
	doc, err := p.c.Indexer.Rebuild()
	if err != nil {
		return StepFailed, err
	}
	run.Index = doc
	return StepSucceeded, nil
}

func (p *Pipeline) gate(ctx context.Context, run *Run, _ *execution) (StepResult, error) {
	staged, err := p.c.VCS.Stage(ctx)
	if err != nil {
		return StepFailed, err
	}
	run.Staged = staged
	res, err := p.c.Gate.RunIfNeeded(ctx, staged)
	if err != nil {
		return StepFailed, err
	}
	run.Gate = res
	if !staged {
		return StepSkipped, nil
	}
	return StepSucceeded, nil
}

func (p *Pipeline) publish(ctx context.Context, run *Run, _ *execution) (StepResult, error) {
	if !run.Staged {
		slog.Info("Nothing staged, publishing skipped", logfields.RunID(run.ID))
		return StepSkipped, nil
	}
	msg := run.Request.Message
	if msg == "" {
		msg = git.FormatMessage(p.c.CommitMessage, run.Resolved.ID)
	}
	res, err := p.c.VCS.Publish(ctx, msg)
	run.Commit = res
	if err != nil {
		return StepFailed, err
	}
	return StepSucceeded, nil
}

func (p *Pipeline) verify(ctx context.Context, run *Run, _ *execution) (StepResult, error) {
	st, err := p.c.Verifier.Verify(ctx)
	run.Git = st
	if err != nil {
		return StepFailed, err
	}
	return StepSucceeded, nil
}
