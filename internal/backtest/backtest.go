// Package backtest is the boundary to the external backtest engine. The engine
// is opaque: it produces report bytes and a metrics manifest or it fails.
package backtest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/strategy"
)

// Runner produces report content for a resolved strategy.
type Runner interface {
	Run(ctx context.Context, res strategy.Resolved) (ReportContent, error)
}

// ReportContent bundles the rendered report with its manifest.
type ReportContent struct {
	Report   []byte
	Manifest Manifest
}

// Manifest records the assumptions and computed metrics of a backtest run.
type Manifest struct {
	Strategy    string             `json:"strategy"`
	Mode        string             `json:"mode"`
	GeneratedBy string             `json:"generated_by"`
	Parameters  map[string]string  `json:"parameters,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
	DateRange   string             `json:"date_range,omitempty"`
	Config      string             `json:"config,omitempty"`
}

// Encode renders the manifest as indented JSON with a trailing newline.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

//go:embed manifest.schema.json
var manifestSchemaJSON string

const manifestSchemaURL = "reportpub://manifest.schema.json"

var (
	schemaOnce     sync.Once
	manifestSchema *jsonschema.Schema
	errSchema      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaURL, strings.NewReader(manifestSchemaJSON)); err != nil {
			errSchema = fmt.Errorf("add schema resource: %w", err)
			return
		}
		manifestSchema, errSchema = compiler.Compile(manifestSchemaURL)
	})
	return manifestSchema, errSchema
}

// DecodeManifest validates raw JSON against the manifest schema and decodes it.
func DecodeManifest(raw []byte) (Manifest, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Manifest{}, errors.InternalError("manifest schema unavailable").WithCause(err).Build()
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Manifest{}, errors.BacktestError("manifest is not valid JSON").WithCause(err).Build()
	}
	if err := schema.Validate(payload); err != nil {
		return Manifest{}, errors.BacktestError("manifest does not match schema").WithCause(err).Build()
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, errors.BacktestError("failed to decode manifest").WithCause(err).Build()
	}
	return m, nil
}

// ValidateManifest checks an in-memory manifest against the schema.
func ValidateManifest(m Manifest) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.BacktestError("failed to encode manifest").WithCause(err).Build()
	}
	_, err = DecodeManifest(raw)
	return err
}

// ValidateReport checks that report is non-empty HTML with a body element.
func ValidateReport(report []byte) error {
	if len(bytes.TrimSpace(report)) == 0 {
		return errors.BacktestError("report is empty").Build()
	}
	doc, err := html.Parse(bytes.NewReader(report))
	if err != nil {
		return errors.BacktestError("report is not parseable HTML").WithCause(err).Build()
	}
	if !hasNonEmptyBody(doc) {
		return errors.BacktestError("report has no body content").Build()
	}
	return nil
}

// hasNonEmptyBody reports whether the document's body has any child nodes.
// html.Parse always synthesizes a body, so emptiness is the real signal.
func hasNonEmptyBody(n *html.Node) bool {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || (c.Type == html.TextNode && strings.TrimSpace(c.Data) != "") {
				return true
			}
		}
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasNonEmptyBody(c) {
			return true
		}
	}
	return false
}
