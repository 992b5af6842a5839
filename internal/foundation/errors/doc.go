// Package errors provides foundational, type-safe error primitives used across reportpub.
//
// Every failure that can end a publish run is expressed as a ClassifiedError whose
// category doubles as the run's failure kind:
//   - ErrorCategory: failure kind (validation, backtest, filesystem, gate, vcs, parity, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether the condition is transient (only pushes are retried)
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: maps categories to process exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryFileSystem, "rename artifact failed").
//		WithCause(renameErr).
//		WithContext("path", target).
//		Build()
package errors
