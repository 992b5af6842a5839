package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStrategy   = "strategy"
	KeyMode       = "mode"
	KeyStep       = "step"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCommit     = "commit"
	KeyRemote     = "remote"
	KeyBranch     = "branch"
	KeyAttempt    = "attempt"
	KeyCommand    = "command"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Strategy(s string) slog.Attr     { return slog.String(KeyStrategy, s) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Remote(r string) slog.Attr       { return slog.String(KeyRemote, r) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Command(argv []string) slog.Attr { return slog.Any(KeyCommand, argv) }

// Commit shortens full hashes to eight characters.
func Commit(hash string) slog.Attr {
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return slog.String(KeyCommit, hash)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
