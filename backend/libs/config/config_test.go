package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Input struct {
		Path string `yaml:"path" env:"SAMPLE_INPUT_PATH"`
	} `yaml:"input"`
	Limits struct {
		Quantile float64       `yaml:"quantile"`
		Rows     int           `yaml:"rows"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"limits"`
	Tags  []string `yaml:"tags" env:"SAMPLE_TAGS"`
	Debug bool     `yaml:"debug" env:"SAMPLE_DEBUG"`
}

func TestLoadConfigFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := "input:\n  path: events.csv\nlimits:\n  quantile: 0.9\n  rows: 3\n  ttl: 5m\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("SAMPLE_INPUT_PATH", "override.csv")
	t.Setenv("LIMITS_ROWS", "7")
	t.Setenv("LIMITS_TTL", "90s")
	t.Setenv("SAMPLE_TAGS", "a, b,,c")
	t.Setenv("SAMPLE_DEBUG", "true")

	var cfg sampleConfig
	require.NoError(t, LoadConfigFrom(path, &cfg))

	assert.Equal(t, "override.csv", cfg.Input.Path)
	assert.InDelta(t, 0.9, cfg.Limits.Quantile, 1e-12)
	assert.Equal(t, 7, cfg.Limits.Rows)
	assert.Equal(t, 90*time.Second, cfg.Limits.TTL)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigRejectsBadTargets(t *testing.T) {
	require.Error(t, LoadConfigFrom("", nil))

	var notStruct int
	require.Error(t, LoadConfigFrom("", &notStruct))
}

func TestLoadConfigReportsBadEnvValue(t *testing.T) {
	t.Setenv("LIMITS_ROWS", "many")

	var cfg sampleConfig
	err := LoadConfigFrom("", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIMITS_ROWS")
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg sampleConfig
	err := LoadConfigFrom(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}
