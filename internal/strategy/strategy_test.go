package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportpub/internal/config"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Strategies: []config.StrategyConfig{
			{ID: "beta_engine_60_40"},
			{ID: "momentum", Slug: "momo", DisplayName: "Momentum Tilt", Modes: []string{"research"}},
		},
		BlockedStrategies: []string{"sandbox"},
	}
}

func TestResolve_Known(t *testing.T) {
	r := NewResolver(testConfig())

	res, err := r.Resolve("beta-engine-60-40", "capital")
	require.NoError(t, err)
	assert.Equal(t, Resolved{ID: "beta_engine_60_40", Slug: "beta_engine_60_40", Mode: ModeCapital, DisplayName: "Beta Engine 60 40"}, res)

	res, err = r.Resolve(" momentum ", "RESEARCH")
	require.NoError(t, err)
	assert.Equal(t, "momo", res.Slug)
	assert.Equal(t, "Momentum Tilt", res.DisplayName)
	assert.Equal(t, ModeResearch, res.Mode)
}

func TestResolve_Rejections(t *testing.T) {
	r := NewResolver(testConfig())

	tests := []struct {
		name     string
		strategy string
		mode     string
	}{
		{"empty strategy", "  ", "capital"},
		{"unknown mode", "beta_engine_60_40", "paper"},
		{"unknown strategy", "nope", "capital"},
		{"blocked", "sandbox", "capital"},
		{"mode restricted", "momentum", "capital"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.strategy, tt.mode)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestResolve_PortfolioRegistry(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "research", "portfolios")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "risk_parity.yaml"), []byte("name: risk-parity-v2\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o600))

	cfg := testConfig()
	cfg.PortfolioRoot = root
	r := NewResolver(cfg)

	res, err := r.Resolve("risk-parity", "research")
	require.NoError(t, err)
	assert.Equal(t, "risk_parity_v2", res.Slug)
	assert.Equal(t, "Risk Parity V2", res.DisplayName)

	_, err = r.Resolve("risk_parity", "capital")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = r.Resolve("broken", "research")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("capital")
	assert.True(t, ok)
	assert.Equal(t, ModeCapital, m)

	_, ok = ParseMode("live")
	assert.False(t, ok)
}

func TestResolve_RejectsIDsOutsideSlugPattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "capital", "portfolios"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.yaml"), []byte("name: notes\n"), 0o600))

	cfg := testConfig()
	cfg.PortfolioRoot = root
	r := NewResolver(cfg)

	for _, id := range []string{"../../notes", "../notes", "a/b", "Beta", ".hidden"} {
		t.Run(id, func(t *testing.T) {
			res, err := r.Resolve(id, "capital")
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
			assert.Empty(t, res.ID)
		})
	}
}
