package artifact

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

const (
	// TimestampLayout is the time layout embedded in artifact filenames.
	TimestampLayout = "2006-01-02_15-04"
	// Ext is the artifact file extension.
	Ext = ".html"
	// SidecarSuffix replaces Ext for manifest sidecars.
	SidecarSuffix = ".manifest.json"
)

var namePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_(\d{2}-\d{2})_(.+)\.html$`)

// Name is a parsed canonical artifact filename.
type Name struct {
	Created time.Time
	Slug    string
}

// Format builds the canonical filename for slug at ts (truncated to the UTC minute).
func Format(ts time.Time, slug string) string {
	return ts.UTC().Format(TimestampLayout) + "_" + slug + Ext
}

// Parse reports whether filename follows the canonical pattern. Names with an
// impossible date or time are not canonical.
func Parse(filename string) (Name, bool) {
	m := namePattern.FindStringSubmatch(filename)
	if m == nil {
		return Name{}, false
	}
	ts, err := time.Parse(TimestampLayout, m[1]+"_"+m[2])
	if err != nil {
		return Name{}, false
	}
	return Name{Created: ts, Slug: m[3]}, true
}

// EnsureName checks that filename is canonical and belongs to slug.
func EnsureName(filename, slug string) error {
	n, ok := Parse(filename)
	if !ok || n.Slug != slug {
		return errors.InternalError("generated artifact name is not canonical").
			WithContext("file", filename).
			WithContext("slug", slug).
			Build()
	}
	return nil
}

// Stem strips the artifact extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filename, Ext)
}

// SidecarName returns the manifest sidecar filename for an artifact.
func SidecarName(filename string) string {
	return Stem(filename) + SidecarSuffix
}

// IsSidecar reports whether filename is a manifest sidecar.
func IsSidecar(filename string) bool {
	return strings.HasSuffix(filename, SidecarSuffix)
}

// ParseTimestamp parses a YYYY-MM-DD_HH-MM value as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(TimestampLayout, value)
	if err != nil {
		return time.Time{}, errors.ValidationError(fmt.Sprintf("timestamp must use layout %s", "YYYY-MM-DD_HH-MM")).
			WithCause(err).
			WithContext("timestamp", value).
			Build()
	}
	return ts.UTC(), nil
}
