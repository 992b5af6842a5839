package artifact

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/backtest"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/logfields"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

const filePerm os.FileMode = 0o644

// Artifact is a canonical report written into the publish root.
type Artifact struct {
	Strategy string
	Slug     string
	Mode     strategy.Mode
	Created  time.Time
	Filename string
	Path     string
	Sidecar  string
	Content  []byte
	Hash     string
}

// Versioner assigns canonical names to report content and writes it atomically.
type Versioner struct {
	publishDir string
}

// NewVersioner creates a versioner writing into publishDir.
func NewVersioner(publishDir string) *Versioner {
	return &Versioner{publishDir: publishDir}
}

// Version writes content as the canonical artifact for res at ts (UTC minute).
// Rewriting an existing artifact of the same minute overwrites it in place.
func (v *Versioner) Version(res strategy.Resolved, content backtest.ReportContent, ts time.Time) (Artifact, error) {
	created := ts.UTC().Truncate(time.Minute)
	filename := Format(created, res.Slug)
	if err := EnsureName(filename, res.Slug); err != nil {
		return Artifact{}, err
	}

	if err := os.MkdirAll(v.publishDir, 0o750); err != nil {
		return Artifact{}, errors.FileSystemError("failed to create publish root").
			WithCause(err).
			WithContext("path", v.publishDir).
			Build()
	}

	path := filepath.Join(v.publishDir, filename)
	hash := Hash(content.Report)
	if prev, err := hashFile(path); err == nil && prev != hash {
		slog.Warn("Overwriting same-minute artifact with different content",
			logfields.File(filename),
			slog.String("previous_hash", prev),
			slog.String("hash", hash))
	}

	if err := WriteFileAtomic(path, content.Report, filePerm); err != nil {
		return Artifact{}, errors.FileSystemError("failed to write artifact").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	sidecar := SidecarName(filename)
	manifest, err := content.Manifest.Encode()
	if err != nil {
		return Artifact{}, errors.InternalError("failed to encode manifest").WithCause(err).Build()
	}
	if err := WriteFileAtomic(filepath.Join(v.publishDir, sidecar), manifest, filePerm); err != nil {
		return Artifact{}, errors.FileSystemError("failed to write manifest sidecar").
			WithCause(err).
			WithContext("path", filepath.Join(v.publishDir, sidecar)).
			Build()
	}

	slog.Info("Artifact written", logfields.Strategy(res.ID), logfields.File(filename))
	return Artifact{
		Strategy: res.ID,
		Slug:     res.Slug,
		Mode:     res.Mode,
		Created:  created,
		Filename: filename,
		Path:     path,
		Sidecar:  sidecar,
		Content:  content.Report,
		Hash:     hash,
	}, nil
}
