package git

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors. Network
// conditions become retryable; everything else is a permanent vcs error.
func ClassifyGitError(err error, op, remote string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := errors.VCSError("git "+op+" failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("remote", remote)

	var nerr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		builder.WithCategory(errors.CategoryNetwork).WithSeverity(errors.SeverityError).Retryable()
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") ||
		strings.Contains(l, "permission denied") || strings.Contains(l, "invalid credentials"):
		builder.WithContext("auth", true)
	case strings.Contains(l, "non-fast-forward") || strings.Contains(l, "diverged"):
		builder.WithContext("diverged", true).UserAction()
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		builder.WithCategory(errors.CategoryNetwork).WithSeverity(errors.SeverityError).RateLimit()
	case stderrors.As(err, &nerr) && nerr.Timeout(),
		strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") ||
			strings.Contains(l, "connection refused") || strings.Contains(l, "timeout") ||
			strings.Contains(l, "deadline exceeded") ||
			strings.Contains(l, "no route to host") || strings.Contains(l, "temporary failure"):
		builder.WithCategory(errors.CategoryNetwork).WithSeverity(errors.SeverityError).Retryable()
	}
	return builder.Build()
}

// isTransient reports whether a classified error may be retried.
func isTransient(err error) bool {
	ce, ok := errors.AsClassified(err)
	return ok && ce.IsTransient()
}
