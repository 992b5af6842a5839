package index

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"slices"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/reportpub/internal/artifact"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

var pageTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #1f2328; }
    table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
    th, td { border: 1px solid #d0d7de; padding: .4rem .6rem; text-align: left; }
    th { background: #f6f8fa; }
    td.num { text-align: right; width: 3rem; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
{{- if .Intro}}
  <div class="intro">{{.Intro}}</div>
{{- end}}
{{- range .Sections}}
  <h2>{{.Title}}</h2>
  <table>
    <thead><tr><th>#</th><th>Report Name</th><th>Strategy</th><th>Published (UTC)</th><th>Link</th></tr></thead>
    <tbody>
{{- range .Entries}}
      <tr><td class="num">{{.Ordinal}}</td><td>{{.Stem}}</td><td>{{.Label}}</td><td>{{.Published}}</td><td><a href="{{.Href}}">{{.Filename}}</a></td></tr>
{{- else}}
      <tr><td colspan="5">No reports found.</td></tr>
{{- end}}
    </tbody>
  </table>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title    string
	Intro    template.HTML
	Sections []Section
}

// Render produces the index document bytes.
func Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	data := pageData{
		Title: doc.Title,
		// #nosec G203 - intro is produced by goldmark from operator configuration
		Intro:    template.HTML(doc.Intro),
		Sections: doc.Sections,
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, errors.InternalError("failed to render index").WithCause(err).Build()
	}
	return buf.Bytes(), nil
}

// RenderIntro converts markdown to HTML. Raw HTML in the source is omitted.
func RenderIntro(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.ConfigError("failed to render index intro").WithCause(err).Build()
	}
	return buf.String(), nil
}

// List reads the publish root and its archive directory. A missing directory
// yields an empty section.
func List(publishDir, archiveDir, indexFile string) (Listing, error) {
	current, err := listDir(publishDir, indexFile)
	if err != nil {
		return Listing{}, err
	}
	archived, err := listDir(filepath.Join(publishDir, archiveDir), indexFile)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Current: current, Archive: archived}, nil
}

func listDir(dir, indexFile string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.FileSystemError("failed to list directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && Indexable(e.Name(), indexFile) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Builder rebuilds and writes the index file for a publish root.
type Builder struct {
	publishDir string
	archiveDir string
	indexFile  string
	opts       Options
}

// NewBuilder creates a builder; introMarkdown is rendered once here.
func NewBuilder(publishDir, archiveDir, indexFile, title, introMarkdown string) (*Builder, error) {
	intro, err := RenderIntro(introMarkdown)
	if err != nil {
		return nil, err
	}
	return &Builder{
		publishDir: publishDir,
		archiveDir: archiveDir,
		indexFile:  indexFile,
		opts:       Options{Title: title, IntroHTML: intro, ArchiveDir: archiveDir},
	}, nil
}

// Rebuild lists the publish root, renders the index and writes it atomically.
// It returns the derived document.
func (b *Builder) Rebuild() (Document, error) {
	listing, err := List(b.publishDir, b.archiveDir, b.indexFile)
	if err != nil {
		return Document{}, err
	}
	doc := Build(b.opts, listing)
	data, err := Render(doc)
	if err != nil {
		return Document{}, err
	}
	if err := os.MkdirAll(b.publishDir, 0o755); err != nil {
		return Document{}, errors.FileSystemError("failed to create publish root").
			WithCause(err).
			WithContext("path", b.publishDir).
			Build()
	}
	path := filepath.Join(b.publishDir, b.indexFile)
	if err := artifact.WriteFileAtomic(path, data, 0o644); err != nil {
		return Document{}, errors.FileSystemError("failed to write index").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return doc, nil
}
