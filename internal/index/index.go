// Package index rebuilds the publication index from the publish-root listing.
//
// Build is a pure function of filenames; modification times and commit
// metadata never influence ordering or displayed timestamps. Rendering the same
// Document twice yields byte-identical output.
package index

import (
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// LegacyLabel marks rows whose filename does not follow the canonical pattern.
const LegacyLabel = "legacy"

const displayLayout = "2006-01-02 15:04 UTC"

// Listing is the set of filenames the index is derived from.
type Listing struct {
	Current []string
	Archive []string
}

// Entry is one derived index row.
type Entry struct {
	Ordinal   int
	Filename  string
	Stem      string
	Href      string
	Label     string
	Timestamp time.Time
	Legacy    bool
}

// Published is the row's display timestamp or "Legacy".
func (e Entry) Published() string {
	if e.Legacy {
		return "Legacy"
	}
	return e.Timestamp.Format(displayLayout)
}

// Section is a titled group of rows.
type Section struct {
	Title   string
	Entries []Entry
}

// Document is the fully derived index.
type Document struct {
	Title    string
	Intro    string // pre-rendered HTML
	Sections []Section
}

// Options carries the presentation settings of a Build.
type Options struct {
	Title      string
	IntroHTML  string
	ArchiveDir string
}

// Build derives the index document from a listing.
func Build(opts Options, l Listing) Document {
	return Document{
		Title: opts.Title,
		Intro: opts.IntroHTML,
		Sections: []Section{
			{Title: "Current Reports", Entries: entries(l.Current, "")},
			{Title: "Archive", Entries: entries(l.Archive, opts.ArchiveDir+"/")},
		},
	}
}

func entries(names []string, prefix string) []Entry {
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		e := Entry{Filename: name, Stem: artifact.Stem(name), Href: prefix + name}
		if n, ok := artifact.Parse(name); ok {
			e.Timestamp = n.Created
			e.Label = strategy.Label(n.Slug)
		} else {
			e.Legacy = true
			e.Label = LegacyLabel
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		default:
			return 0
		}
	})
	for i := range out {
		out[i].Ordinal = len(out) - i
	}
	return out
}

// Less orders index rows: conforming rows newest first with filename as the
// tie-breaker, then legacy rows by filename.
func Less(a, b Entry) bool {
	if a.Legacy != b.Legacy {
		return !a.Legacy
	}
	if !a.Legacy && !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return strings.Compare(a.Filename, b.Filename) < 0
}

// Indexable reports whether a publish-root filename becomes an index row.
func Indexable(name, indexFile string) bool {
	return name != indexFile &&
		!strings.HasPrefix(name, ".") &&
		strings.HasSuffix(name, artifact.Ext) &&
		!artifact.IsSidecar(name)
}
