package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvPublishRoot = "REPORTPUB_PUBLISH_ROOT"
	EnvRemote      = "REPORTPUB_REMOTE"
	EnvBranch      = "REPORTPUB_BRANCH"
	EnvLogLevel    = "REPORTPUB_LOG_LEVEL"
)

// loadEnvFiles loads .env and .env.local from dir when present.
// Existing process environment variables are never overwritten.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPublishRoot); v != "" {
		cfg.PublishRoot = v
	}
	if v := os.Getenv(EnvRemote); v != "" {
		cfg.Git.Remote = v
	}
	if v := os.Getenv(EnvBranch); v != "" {
		cfg.Git.Branch = v
	}
}
