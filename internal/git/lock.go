package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// LockFile is the run lock name inside the git directory.
const LockFile = "reportpub.lock"

// RunLock guarantees at most one publish run per repository.
type RunLock struct {
	path string
}

// AcquireLock creates the lock exclusively. An existing lock is a lock error
// naming its holder.
func (c *Client) AcquireLock(runID string) (*RunLock, error) {
	path := filepath.Join(c.GitDir(), LockFile)
	// #nosec G304 - fixed name inside the repository metadata directory
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(path)
			return nil, errors.LockError("another publish run holds the repository lock").
				WithContext("path", path).
				WithContext("holder", strings.TrimSpace(string(holder))).
				Build()
		}
		return nil, errors.LockError("failed to create run lock").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	_, werr := fmt.Fprintf(f, "run_id=%s pid=%d\n", runID, os.Getpid())
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, errors.LockError("failed to write run lock").
			WithCause(firstErr(werr, cerr)).
			WithContext("path", path).
			Build()
	}
	return &RunLock{path: path}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string { return l.path }

// Release removes the lock. Releasing twice is harmless.
func (l *RunLock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.LockError("failed to release run lock").WithCause(err).WithContext("path", l.path).Build()
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
