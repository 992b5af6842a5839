package pipeline

import (
	"time"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/gate"
	"git.home.luguber.info/inful/reportpub/internal/git"
	"git.home.luguber.info/inful/reportpub/internal/index"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// Request is the operator intent for one publish run.
type Request struct {
	StrategyID string
	Mode       string
	// Timestamp names the artifact; zero means now.
	Timestamp time.Time
	// Message overrides the configured commit message template.
	Message string
}

// Run is the transient state of one publish run. It is never persisted or
// resumed; the history ledger only records its outcome.
type Run struct {
	ID        string
	Request   Request
	State     State
	Current   StepName
	StartedAt time.Time
	EndedAt   time.Time

	Steps    []StepRecord
	Resolved strategy.Resolved
	Artifact artifact.Artifact
	Archived []string
	Index    index.Document
	Staged   bool
	Gate     gate.Result
	Commit   git.CommitResult
	Git      git.State

	Err *StepError
}

// Succeeded reports whether the run reached the terminal success state.
func (r *Run) Succeeded() bool { return r.State == StateSucceeded }

// Outcome is "succeeded" or "failed:<kind>".
func (r *Run) Outcome() string {
	if r.Err == nil {
		return string(r.State)
	}
	return string(StateFailed) + ":" + string(r.Err.Kind)
}

// Result returns the recorded result of step and whether it ran.
func (r *Run) Result(step StepName) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Result, true
		}
	}
	return "", false
}

func (r *Run) record(step StepName, result StepResult, d time.Duration) {
	r.Steps = append(r.Steps, StepRecord{Step: step, Result: result, Duration: d})
}
