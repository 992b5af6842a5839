package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opts = Options{Title: "MS Report Dashboard", ArchiveDir: "archive"}

func filenames(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Filename
	}
	return out
}

func TestBuild_Ordering(t *testing.T) {
	doc := Build(opts, Listing{Current: []string{
		"old_report.html",
		"2026-02-14_10-05_beta_engine_60_40.html",
		"zzz_legacy.html",
		"2026-02-14_11-20_alpha.html",
		"2026-02-14_11-20_aaa.html",
		"2025-12-31_23-59_beta_engine_60_40.html",
	}})

	current := doc.Sections[0]
	assert.Equal(t, "Current Reports", current.Title)
	assert.Equal(t, []string{
		"2026-02-14_11-20_aaa.html",
		"2026-02-14_11-20_alpha.html",
		"2026-02-14_10-05_beta_engine_60_40.html",
		"2025-12-31_23-59_beta_engine_60_40.html",
		"old_report.html",
		"zzz_legacy.html",
	}, filenames(current.Entries))

	first := current.Entries[0]
	assert.Equal(t, 6, first.Ordinal)
	assert.Equal(t, "2026-02-14 11:20 UTC", first.Published())
	assert.Equal(t, "Aaa", first.Label)
	assert.Equal(t, time.Date(2026, 2, 14, 11, 20, 0, 0, time.UTC), first.Timestamp)

	legacy := current.Entries[4]
	assert.True(t, legacy.Legacy)
	assert.Equal(t, LegacyLabel, legacy.Label)
	assert.Equal(t, "Legacy", legacy.Published())
	assert.Equal(t, 2, legacy.Ordinal)
	assert.Equal(t, 1, current.Entries[5].Ordinal)
}

func TestBuild_ArchiveLinks(t *testing.T) {
	doc := Build(opts, Listing{
		Current: []string{"2026-02-14_11-20_beta_engine_60_40.html"},
		Archive: []string{"2026-02-14_10-05_beta_engine_60_40.html"},
	})
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "2026-02-14_11-20_beta_engine_60_40.html", doc.Sections[0].Entries[0].Href)
	assert.Equal(t, "archive/2026-02-14_10-05_beta_engine_60_40.html", doc.Sections[1].Entries[0].Href)
	assert.Equal(t, "Beta Engine 60 40", doc.Sections[1].Entries[0].Label)
}

func TestLess_IsStrictWeakOrder(t *testing.T) {
	a := Entry{Filename: "2026-02-14_10-05_a.html", Timestamp: time.Date(2026, 2, 14, 10, 5, 0, 0, time.UTC)}
	l := Entry{Filename: "old.html", Legacy: true}
	assert.True(t, Less(a, l))
	assert.False(t, Less(l, a))
	assert.False(t, Less(a, a))
	assert.False(t, Less(l, l))
}

func TestRender_Idempotent(t *testing.T) {
	l := Listing{Current: []string{"old_report.html", "2026-02-14_10-05_beta_engine_60_40.html"}}
	first, err := Render(Build(opts, l))
	require.NoError(t, err)
	second, err := Render(Build(opts, l))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	html := string(first)
	assert.Contains(t, html, "<title>MS Report Dashboard</title>")
	assert.Contains(t, html, `<a href="2026-02-14_10-05_beta_engine_60_40.html">`)
	assert.Contains(t, html, "<td>Legacy</td>")
	assert.Contains(t, html, "No reports found.", "empty archive section")
}

func TestRender_EscapesAndIntro(t *testing.T) {
	intro, err := RenderIntro("Reports for **capital** mode.")
	require.NoError(t, err)
	assert.Contains(t, intro, "<strong>capital</strong>")

	out, err := Render(Build(Options{Title: "<Dash>", IntroHTML: intro, ArchiveDir: "archive"}, Listing{}))
	require.NoError(t, err)
	assert.Contains(t, string(out), "&lt;Dash&gt;")
	assert.Contains(t, string(out), "<strong>capital</strong>")
	assert.Equal(t, 2, strings.Count(string(out), "No reports found."))
}

func TestIndexable(t *testing.T) {
	assert.True(t, Indexable("old_report.html", "index.html"))
	assert.False(t, Indexable("index.html", "index.html"))
	assert.False(t, Indexable(".index.html.tmp-123", "index.html"))
	assert.False(t, Indexable("2026-02-14_10-05_beta.manifest.json", "index.html"))
	assert.False(t, Indexable("notes.md", "index.html"))
}

func TestBuilder_Rebuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-02-14_10-05_beta.html"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-02-14_10-05_beta.manifest.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_report.html"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.html"), 0o750))

	b, err := NewBuilder(dir, "archive", "index.html", "Dash", "")
	require.NoError(t, err)

	doc, err := b.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-14_10-05_beta.html", "old_report.html"}, filenames(doc.Sections[0].Entries))
	assert.Empty(t, doc.Sections[1].Entries)

	first, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)

	_, err = b.Rebuild()
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestList_MissingPublishRoot(t *testing.T) {
	listing, err := List(filepath.Join(t.TempDir(), "missing"), "archive", "index.html")
	require.NoError(t, err)
	assert.Empty(t, listing.Current)
	assert.Empty(t, listing.Archive)
}

func TestBuilder_RebuildCreatesPublishRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs", "reports")
	b, err := NewBuilder(dir, "archive", "index.html", "Dash", "")
	require.NoError(t, err)

	doc, err := b.Rebuild()
	require.NoError(t, err)
	assert.Empty(t, doc.Sections[0].Entries)

	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "No reports found.")
}
