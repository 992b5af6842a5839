package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

// Config is the single immutable configuration value for a reportpub process.
// It is loaded once at start and passed explicitly to every component.
type Config struct {
	// RepoRoot is the git working tree that holds the publish root.
	RepoRoot string `yaml:"repo_root"`
	// PublishRoot holds canonical artifacts and the index; relative to RepoRoot.
	PublishRoot string `yaml:"publish_root"`
	ArchiveDir  string `yaml:"archive_dir"`
	IndexFile   string `yaml:"index_file"`
	SiteURL     string `yaml:"site_url,omitempty"`

	Strategies        []StrategyConfig `yaml:"strategies"`
	PortfolioRoot     string           `yaml:"portfolio_root,omitempty"`
	BlockedStrategies []string         `yaml:"blocked_strategies,omitempty"`

	Backtest BacktestConfig  `yaml:"backtest"`
	Gate     GateConfig      `yaml:"gate"`
	Git      GitConfig       `yaml:"git"`
	Index    IndexConfig     `yaml:"index"`
	History  HistoryConfig   `yaml:"history"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Notify   NotifyConfig    `yaml:"notify"`
	Schedule []ScheduleEntry `yaml:"schedule,omitempty"`
}

// StrategyConfig registers a publishable strategy.
type StrategyConfig struct {
	ID          string   `yaml:"id"`
	Slug        string   `yaml:"slug,omitempty"`         // defaults to ID
	DisplayName string   `yaml:"display_name,omitempty"` // defaults to a title-cased slug
	Modes       []string `yaml:"modes,omitempty"`        // empty means every mode
}

// BacktestConfig describes how the external backtest engine is invoked.
type BacktestConfig struct {
	Command []string `yaml:"command"`
	Workdir string   `yaml:"workdir,omitempty"`
	Timeout Duration `yaml:"timeout"`
	// ReportPath is used when the engine does not print REPORT_PATH.
	// Placeholders: {strategy}, {slug}, {mode}.
	ReportPath string `yaml:"report_path,omitempty"`
}

// GateConfig describes the test suite that guards every commit.
type GateConfig struct {
	Command         []string `yaml:"command"`
	FallbackCommand []string `yaml:"fallback_command,omitempty"`
	Timeout         Duration `yaml:"timeout"`
}

// GitConfig describes the fixed remote and branch the pipeline publishes to.
type GitConfig struct {
	Remote        string      `yaml:"remote"`
	Branch        string      `yaml:"branch"`
	PushTimeout   Duration    `yaml:"push_timeout"`
	AuthorName    string      `yaml:"author_name"`
	AuthorEmail   string      `yaml:"author_email"`
	CommitMessage string      `yaml:"commit_message"`
	Auth          *AuthConfig `yaml:"auth,omitempty"`
	Retry         RetryConfig `yaml:"retry"`
}

// AuthConfig represents authentication configuration for pushes.
type AuthConfig struct {
	Type     string `yaml:"type"` // "none", "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// IndexConfig controls the rendered index document.
type IndexConfig struct {
	Title string `yaml:"title"`
	// Intro is markdown rendered below the title.
	Intro string `yaml:"intro,omitempty"`
}

// HistoryConfig enables the run history ledger. Empty Path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables Prometheus textfile export. Empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables NATS notifications for succeeded runs.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ScheduleEntry binds a registered command token to a recurring trigger.
type ScheduleEntry struct {
	Name     string   `yaml:"name"`
	Command  string   `yaml:"command"`
	Strategy string   `yaml:"strategy,omitempty"`
	Mode     string   `yaml:"mode,omitempty"`
	Every    Duration `yaml:"every,omitempty"`
	Cron     string   `yaml:"cron,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	baseDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, errors.ConfigError("failed to resolve config directory").WithCause(err).Build()
	}
	cfg.ResolvePaths(baseDir)
	return cfg, nil
}

// Parse decodes YAML (after ${VAR} expansion), applies defaults and environment
// overrides, and validates the result. Relative paths are left unresolved.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePaths anchors relative paths: RepoRoot to baseDir, the rest to RepoRoot.
func (c *Config) ResolvePaths(baseDir string) {
	if !filepath.IsAbs(c.RepoRoot) {
		c.RepoRoot = filepath.Join(baseDir, c.RepoRoot)
	}
	if c.PortfolioRoot != "" && !filepath.IsAbs(c.PortfolioRoot) {
		c.PortfolioRoot = filepath.Join(c.RepoRoot, c.PortfolioRoot)
	}
	if c.Backtest.Workdir != "" && !filepath.IsAbs(c.Backtest.Workdir) {
		c.Backtest.Workdir = filepath.Join(c.RepoRoot, c.Backtest.Workdir)
	}
	if c.History.Path != "" && !filepath.IsAbs(c.History.Path) {
		c.History.Path = filepath.Join(baseDir, c.History.Path)
	}
	if c.Metrics.Textfile != "" && !filepath.IsAbs(c.Metrics.Textfile) {
		c.Metrics.Textfile = filepath.Join(baseDir, c.Metrics.Textfile)
	}
}

// PublishDir returns the absolute publish root.
func (c *Config) PublishDir() string {
	if filepath.IsAbs(c.PublishRoot) {
		return c.PublishRoot
	}
	return filepath.Join(c.RepoRoot, c.PublishRoot)
}

// ArchivePath returns the absolute archive directory.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.PublishDir(), c.ArchiveDir)
}

// IndexPath returns the absolute index document path.
func (c *Config) IndexPath() string {
	return filepath.Join(c.PublishDir(), c.IndexFile)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		RepoRoot:    ".",
		PublishRoot: "outputs/reports",
		ArchiveDir:  defaultArchiveDir,
		IndexFile:   defaultIndexFile,
		SiteURL:     "https://example.github.io/reports/",
		Strategies: []StrategyConfig{
			{ID: "beta_engine_60_40", DisplayName: "Beta Engine 60/40", Modes: []string{"capital", "research"}},
		},
		BlockedStrategies: []string{"sandbox"},
		Backtest: BacktestConfig{
			Command: []string{"python3", "backtest.py"},
			Workdir: "agents/scientist",
			Timeout: Duration(defaultBacktestTimeout),
		},
		Gate: GateConfig{
			Command: []string{"python3", "-m", "pytest", "-q"},
			Timeout: Duration(defaultGateTimeout),
		},
		Git: GitConfig{
			Remote:        defaultRemote,
			Branch:        defaultBranch,
			PushTimeout:   Duration(defaultPushTimeout),
			AuthorName:    defaultAuthorName,
			AuthorEmail:   defaultAuthorEmail,
			CommitMessage: defaultCommitMessage,
			Retry:         DefaultRetry(),
		},
		Index: IndexConfig{Title: defaultIndexTitle},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	fmt.Fprintf(os.Stderr, "Configuration written to %s\n", configPath)
	return nil
}
