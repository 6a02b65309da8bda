package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{
		"namespace": {"block_size": 50},
		"mover": {"task_concurrency": 8, "retry_attempts": 5},
		"metrics": {"enabled": true, "address": ":9999"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.Namespace.BlockSize)
	assert.Equal(t, 8, cfg.Mover.TaskConcurrency)
	assert.Equal(t, 5, cfg.Mover.RetryAttempts)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Address)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.json")
	assert.Error(t, err)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	defaults := Default()
	assert.Equal(t, defaults.Mover.TaskConcurrency, cfg.Mover.TaskConcurrency)
	assert.Equal(t, defaults.Namespace.BlockSize, cfg.Namespace.BlockSize)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TIERMOVER_TASK_CONCURRENCY", "16")
	t.Setenv("TIERMOVER_METRICS_ADDRESS", ":7070")

	cfg := LoadFromEnv()
	assert.Equal(t, 16, cfg.Mover.TaskConcurrency)
	assert.Equal(t, ":7070", cfg.Metrics.Address)
	assert.True(t, cfg.Metrics.Enabled)
}
