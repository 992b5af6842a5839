package artifact

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
)

// Archiver moves superseded artifacts into the append-only archive directory.
type Archiver struct {
	publishDir string
	archiveDir string
}

// NewArchiver creates an archiver for publishDir with its archive directory.
func NewArchiver(publishDir, archiveDir string) *Archiver {
	return &Archiver{publishDir: publishDir, archiveDir: archiveDir}
}

// Archive ensures the archive directory exists, then moves every canonical
// artifact of slug other than keep (with its sidecar) into it. It returns the
// moved artifact filenames in listing order.
func (a *Archiver) Archive(slug, keep string) ([]string, error) {
	if err := os.MkdirAll(a.archiveDir, 0o750); err != nil {
		return nil, errors.FileSystemError("failed to create archive directory").
			WithCause(err).
			WithContext("path", a.archiveDir).
			Build()
	}

	entries, err := os.ReadDir(a.publishDir)
	if err != nil {
		return nil, errors.FileSystemError("failed to list publish root").
			WithCause(err).
			WithContext("path", a.publishDir).
			Build()
	}

	var moved []string
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == keep {
			continue
		}
		n, ok := Parse(e.Name())
		if !ok || n.Slug != slug {
			continue
		}
		if err := a.move(e.Name()); err != nil {
			return moved, err
		}
		sidecar := SidecarName(e.Name())
		if _, err := os.Stat(filepath.Join(a.publishDir, sidecar)); err == nil {
			if err := a.move(sidecar); err != nil {
				return moved, err
			}
		}
		moved = append(moved, e.Name())
		slog.Info("Artifact archived", logfields.File(e.Name()))
	}
	return moved, nil
}

// move relocates name from the publish root into the archive. When the archive
// already holds an identical file the source is dropped; a differing one is
// never overwritten.
func (a *Archiver) move(name string) error {
	src := filepath.Join(a.publishDir, name)
	dst := filepath.Join(a.archiveDir, name)

	if _, err := os.Stat(dst); err == nil {
		srcHash, err := hashFile(src)
		if err != nil {
			return errors.FileSystemError("failed to read artifact").WithCause(err).WithContext("path", src).Build()
		}
		dstHash, err := hashFile(dst)
		if err != nil {
			return errors.FileSystemError("failed to read archived artifact").WithCause(err).WithContext("path", dst).Build()
		}
		if srcHash != dstHash {
			return errors.FileSystemError("archive already holds a different file with this name").
				WithContext("path", dst).
				Build()
		}
		if err := os.Remove(src); err != nil {
			return errors.FileSystemError("failed to remove already archived artifact").WithCause(err).WithContext("path", src).Build()
		}
		return nil
	} else if !os.IsNotExist(err) {
		return errors.FileSystemError("failed to inspect archive").WithCause(err).WithContext("path", dst).Build()
	}

	if err := os.Rename(src, dst); err != nil {
		return errors.FileSystemError("failed to move artifact into archive").
			WithCause(err).
			WithContext("from", src).
			WithContext("to", dst).
			Build()
	}
	return nil
}
