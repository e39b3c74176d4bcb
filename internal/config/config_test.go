package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromDir(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromDir(t, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, float64(10), cfg.EDGAR.RatePerSecond)
	assert.Equal(t, 3, cfg.EDGAR.MaxRetries)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, int64(2)<<30, cfg.Cache.MaxBytes)
	assert.Equal(t, 8, cfg.Aggregator.TaskWorkers)
	assert.Equal(t, 4, cfg.Aggregator.TickerConcurrency)
	assert.Equal(t, 60, cfg.Aggregator.TaskTimeoutSec)
	assert.Equal(t, 5, cfg.Aggregator.LookbackYears)
	assert.Equal(t, 100, cfg.Parsers.Form4Max)
	assert.Equal(t, 10, cfg.Parsers.DEF14AMax)
	assert.Equal(t, 50, cfg.Parsers.SC13Max)
	assert.Equal(t, 2, cfg.Parsers.ReportsPerForm)
	assert.Equal(t, 24, cfg.Parsers.ActiveWindowMonths)
	assert.InDelta(t, 0.82, cfg.Relationship.FuzzyThreshold, 1e-9)
	assert.InDelta(t, 0.50, cfg.Relationship.MinConfidence, 1e-9)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, "llama3.1", cfg.AI.Model)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
edgar:
  contact: "Jane Doe jane@example.com"
  rate_per_second: 5
aggregator:
  ticker_concurrency: 2
ai:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := loadFromDir(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe jane@example.com", cfg.EDGAR.Contact)
	assert.Equal(t, float64(5), cfg.EDGAR.RatePerSecond)
	assert.Equal(t, 2, cfg.Aggregator.TickerConcurrency)
	assert.True(t, cfg.AI.Enabled)
	// Untouched keys keep defaults.
	assert.Equal(t, 8, cfg.Aggregator.TaskWorkers)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EDGARPROFILER_EDGAR_CONTACT", "Ops ops@example.com")

	cfg, err := loadFromDir(t, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Ops ops@example.com", cfg.EDGAR.Contact)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Cache.MaxBytes = 1 << 20

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edgar.contact")

	cfg.EDGAR.Contact = "Jane Doe jane@example.com"
	require.NoError(t, cfg.Validate())

	cfg.Cache.MaxBytes = 0
	assert.Error(t, cfg.Validate())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
