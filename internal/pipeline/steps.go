package pipeline

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/metrics"
)

// StepName is a strongly-typed identifier for a publish step.
type StepName string

// Canonical step names in execution order.
const (
	StepResolving   StepName = "resolving"
	StepBacktesting StepName = "backtesting"
	StepVersioning  StepName = "versioning"
	StepArchiving   StepName = "archiving"
	StepIndexing    StepName = "indexing"
	StepGating      StepName = "gating"
	StepPublishing  StepName = "publishing"
	StepVerifying   StepName = "verifying"
)

// StepLock names the pseudo-step of acquiring the run lock.
const StepLock StepName = "locking"

// State is the position of a run in its state machine.
type State string

const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// StepResult captures the outcome of one step.
type StepResult string

const (
	StepSucceeded StepResult = "succeeded"
	StepSkipped   StepResult = "skipped"
	StepFailed    StepResult = "failed"
)

func (r StepResult) label() metrics.ResultLabel {
	switch r {
	case StepSkipped:
		return metrics.ResultSkipped
	case StepFailed:
		return metrics.ResultFailed
	default:
		return metrics.ResultSucceeded
	}
}

// StepRecord is the recorded outcome of an executed step.
type StepRecord struct {
	Step     StepName
	Result   StepResult
	Duration time.Duration
}

// StepError carries the failing step, the error kind and the cause.
type StepError struct {
	Step StepName
	Kind errors.ErrorCategory
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// newStepError classifies err by its category; unclassified errors are internal.
func newStepError(step StepName, err error) *StepError {
	kind := errors.CategoryInternal
	if ce, ok := errors.AsClassified(err); ok {
		kind = ce.Category()
	}
	return &StepError{Step: step, Kind: kind, Err: err}
}
