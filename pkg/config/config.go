package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Namespace NamespaceConfig `json:"namespace,omitempty"`
	Mover     MoverConfig     `json:"mover,omitempty"`
	Metrics   MetricsConfig   `json:"metrics,omitempty"`
}

type NamespaceConfig struct {
	BlockSize int64 `json:"block_size"`
}

type MoverConfig struct {
	TaskConcurrency int   `json:"task_concurrency"`
	RetryAttempts   int   `json:"retry_attempts"`
	RetryBackoffMs  int   `json:"retry_backoff_ms"`
	TransferDelayMs int64 `json:"transfer_delay_ms_per_mb"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

func Default() *Config {
	return &Config{
		Namespace: NamespaceConfig{
			BlockSize: 128 * 1024 * 1024,
		},
		Mover: MoverConfig{
			TaskConcurrency: 4,
			RetryAttempts:   3,
			RetryBackoffMs:  10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := Default()
	cfg.Namespace.BlockSize = getEnvInt64("TIERMOVER_BLOCK_SIZE", cfg.Namespace.BlockSize)
	cfg.Mover.TaskConcurrency = int(getEnvInt64("TIERMOVER_TASK_CONCURRENCY", int64(cfg.Mover.TaskConcurrency)))
	cfg.Mover.RetryAttempts = int(getEnvInt64("TIERMOVER_RETRY_ATTEMPTS", int64(cfg.Mover.RetryAttempts)))
	cfg.Metrics.Address = getEnv("TIERMOVER_METRICS_ADDRESS", cfg.Metrics.Address)
	if os.Getenv("TIERMOVER_METRICS_ADDRESS") != "" {
		cfg.Metrics.Enabled = true
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
