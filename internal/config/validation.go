package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// Modes is the fixed allow-list of execution modes.
var Modes = []string{"capital", "research"}

// NormalizeID trims a strategy identifier and maps dashes to underscores.
// Registry ids are compared in this form.
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "_")
}

// SlugPattern constrains strategy slugs so artifact filenames stay parseable.
var SlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Validate checks the complete configuration; the first problem found is returned
// as a config classified error.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateLayout,
		v.validateStrategies,
		v.validateCommands,
		v.validateGit,
		v.validateNotify,
		v.validateSchedule,
	} {
		if err := check(); err != nil {
			return errors.ConfigError("invalid configuration").WithCause(err).Build()
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateLayout() error {
	for name, value := range map[string]string{"archive_dir": cv.config.ArchiveDir, "index_file": cv.config.IndexFile} {
		if value == "." || value == ".." || filepath.Base(value) != value {
			return fmt.Errorf("%s must be a single path element, got %q", name, value)
		}
	}
	if cv.config.ArchiveDir == cv.config.IndexFile {
		return fmt.Errorf("archive_dir and index_file must differ")
	}
	return nil
}

func (cv *configurationValidator) validateStrategies() error {
	if len(cv.config.Strategies) == 0 && cv.config.PortfolioRoot == "" {
		return fmt.Errorf("either strategies or portfolio_root must be configured")
	}
	seen := make(map[string]bool, len(cv.config.Strategies))
	for i, s := range cv.config.Strategies {
		id := NormalizeID(s.ID)
		if id == "" {
			return fmt.Errorf("strategies[%d]: id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("strategies[%d]: duplicate id %q", i, s.ID)
		}
		seen[id] = true
		slug := s.Slug
		if slug == "" {
			slug = id
		}
		if !SlugPattern.MatchString(slug) {
			return fmt.Errorf("strategies[%d]: slug %q must match %s", i, slug, SlugPattern)
		}
		for _, m := range s.Modes {
			if !slices.Contains(Modes, m) {
				return fmt.Errorf("strategies[%d]: unknown mode %q (allowed: %s)", i, m, strings.Join(Modes, ", "))
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateCommands() error {
	if len(cv.config.Backtest.Command) == 0 {
		return fmt.Errorf("backtest.command is required")
	}
	if len(cv.config.Gate.Command) == 0 {
		return fmt.Errorf("gate.command is required")
	}
	if cv.config.Backtest.Timeout <= 0 || cv.config.Gate.Timeout <= 0 {
		return fmt.Errorf("backtest.timeout and gate.timeout must be positive")
	}
	return nil
}

func (cv *configurationValidator) validateGit() error {
	g := cv.config.Git
	if g.PushTimeout <= 0 {
		return fmt.Errorf("git.push_timeout must be positive")
	}
	if _, ok := ParseBackoff(string(g.Retry.Backoff)); !ok {
		return fmt.Errorf("git.retry.backoff %q must be one of %s", g.Retry.Backoff, strings.Join(backoffNames(), ", "))
	}
	if g.Retry.Retries() < 0 {
		return fmt.Errorf("git.retry.max_retries cannot be negative")
	}
	if g.Auth != nil {
		switch g.Auth.Type {
		case "", "none", "ssh", "token", "basic":
		default:
			return fmt.Errorf("git.auth.type %q is not supported", g.Auth.Type)
		}
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	if cv.config.Notify.Enabled && cv.config.Notify.NATSURL == "" {
		return fmt.Errorf("notify.nats_url is required when notify is enabled")
	}
	return nil
}

func (cv *configurationValidator) validateSchedule() error {
	for i, e := range cv.config.Schedule {
		if e.Name == "" || e.Command == "" {
			return fmt.Errorf("schedule[%d]: name and command are required", i)
		}
		if (e.Every > 0) == (e.Cron != "") {
			return fmt.Errorf("schedule[%d]: exactly one of every or cron must be set", i)
		}
	}
	return nil
}
