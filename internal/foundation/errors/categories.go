package errors

// ErrorCategory represents the broad category of an error for classification and routing.
// For errors that end a publish run the category is the run's failure kind.
type ErrorCategory string

const (
	// CategoryValidation is a rejected strategy/mode request. Recoverable, no side effects.
	CategoryValidation ErrorCategory = "validation"
	CategoryConfig     ErrorCategory = "config"

	// CategoryBacktest is a failed or malformed backtest collaborator result.
	CategoryBacktest ErrorCategory = "backtest"
	// CategoryFileSystem covers write/rename/move failures in the publish root.
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryGate is a failing test suite.
	CategoryGate ErrorCategory = "gate"
	// CategoryVCS covers stage/commit/push/read-tip failures.
	CategoryVCS ErrorCategory = "vcs"
	// CategoryParity is a post-push divergence between local and remote tips.
	CategoryParity ErrorCategory = "parity"

	CategoryLock     ErrorCategory = "lock"
	CategoryNetwork  ErrorCategory = "network"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal" // Ends the run
	SeverityError ErrorSeverity = "error" // Fails the current operation only
)

// DefaultSeverity is the severity a new error of category c starts with. A
// rejected request, a held lock or a transient network failure only fails the
// current operation; every other kind ends the run.
func DefaultSeverity(c ErrorCategory) ErrorSeverity {
	switch c {
	case CategoryValidation, CategoryLock, CategoryNetwork:
		return SeverityError
	default:
		return SeverityFatal
	}
}

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"      // Permanent failure, don't retry
	RetryBackoff    RetryStrategy = "backoff"    // Retry with backoff
	RetryRateLimit  RetryStrategy = "rate_limit" // Retry after rate limit window
	RetryUserAction RetryStrategy = "user"       // Requires user intervention
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}
