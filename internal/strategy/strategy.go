// Package strategy resolves requested strategy/mode pairs against the configured registry.
package strategy

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// Mode is an enumerated execution context.
type Mode string

const (
	ModeCapital  Mode = "capital"
	ModeResearch Mode = "research"
)

// ParseMode validates m against the fixed allow-list.
func ParseMode(m string) (Mode, bool) {
	m = strings.ToLower(strings.TrimSpace(m))
	if !slices.Contains(config.Modes, m) {
		return "", false
	}
	return Mode(m), true
}

// Resolved is an immutable, validated strategy for a single run.
type Resolved struct {
	ID          string
	Slug        string
	Mode        Mode
	DisplayName string
}

// Normalize trims an identifier and maps dashes to underscores.
func Normalize(id string) string {
	return config.NormalizeID(id)
}

// Label title-cases a slug for display ("beta_engine_60_40" -> "Beta Engine 60 40").
func Label(slug string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(slug))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Resolver validates strategy ids and modes. It performs no I/O beyond reading
// portfolio registry files.
type Resolver struct {
	entries       map[string]config.StrategyConfig
	blocked       map[string]bool
	portfolioRoot string
}

// NewResolver builds a resolver from the strategy registry in cfg.
func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{
		entries:       make(map[string]config.StrategyConfig, len(cfg.Strategies)),
		blocked:       make(map[string]bool, len(cfg.BlockedStrategies)),
		portfolioRoot: cfg.PortfolioRoot,
	}
	for _, s := range cfg.Strategies {
		r.entries[Normalize(s.ID)] = s
	}
	for _, b := range cfg.BlockedStrategies {
		r.blocked[Normalize(b)] = true
	}
	return r
}

// Resolve validates strategyID against the registry and mode against the allow-list.
func (r *Resolver) Resolve(strategyID, mode string) (Resolved, error) {
	id := Normalize(strategyID)
	if id == "" {
		return Resolved{}, errors.ValidationError("strategy is required").Build()
	}
	if !config.SlugPattern.MatchString(id) {
		return Resolved{}, errors.ValidationError("invalid strategy id").
			WithContext("strategy", strategyID).
			WithContext("pattern", config.SlugPattern.String()).
			Build()
	}
	m, ok := ParseMode(mode)
	if !ok {
		return Resolved{}, errors.ValidationError("unknown mode").
			WithContext("mode", mode).
			WithContext("allowed", strings.Join(config.Modes, ", ")).
			Build()
	}
	if r.blocked[id] {
		return Resolved{}, errors.ValidationError("strategy is blocked from publication").
			WithContext("strategy", id).
			Build()
	}

	if entry, found := r.entries[id]; found {
		if len(entry.Modes) > 0 && !slices.Contains(entry.Modes, string(m)) {
			return Resolved{}, errors.ValidationError("strategy is not enabled for mode").
				WithContext("strategy", id).
				WithContext("mode", string(m)).
				Build()
		}
		slug := entry.Slug
		if slug == "" {
			slug = id
		}
		display := entry.DisplayName
		if display == "" {
			display = Label(slug)
		}
		return Resolved{ID: id, Slug: slug, Mode: m, DisplayName: display}, nil
	}

	if r.portfolioRoot != "" {
		res, found, err := r.fromPortfolio(id, m)
		if err != nil {
			return Resolved{}, err
		}
		if found {
			return res, nil
		}
	}

	return Resolved{}, errors.ValidationError("unknown strategy").
		WithContext("strategy", id).
		WithContext("mode", string(m)).
		Build()
}

type portfolioFile struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
}

// fromPortfolio looks up <root>/<mode>/portfolios/<id>.yaml.
func (r *Resolver) fromPortfolio(id string, m Mode) (Resolved, bool, error) {
	path := filepath.Join(r.portfolioRoot, string(m), "portfolios", id+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolved{}, false, nil
		}
		return Resolved{}, false, errors.ValidationError("failed to read portfolio definition").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	var pf portfolioFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Resolved{}, false, errors.ValidationError("malformed portfolio definition").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	slug := Normalize(pf.Name)
	if slug == "" {
		slug = id
	}
	if !config.SlugPattern.MatchString(slug) {
		return Resolved{}, false, errors.ValidationError("portfolio name is not a valid slug").
			WithContext("path", path).
			WithContext("slug", slug).
			Build()
	}
	display := pf.DisplayName
	if display == "" {
		display = Label(slug)
	}
	return Resolved{ID: id, Slug: slug, Mode: m, DisplayName: display}, true, nil
}
