package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/pdfspool/pdfspool/internal/core"
)

var (
	ErrNegativeDelay     = errors.New("batch delay must be non-negative")
	ErrNegativeRetries   = errors.New("max retries must be non-negative")
	ErrInvalidRetention  = errors.New("history retention days must be non-negative")
	ErrWebhookURLMissing = errors.New("webhook secret set without webhook url")
)

type Config struct {
	Print   PrintConfig   `yaml:"print"`
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
	Webhook WebhookConfig `yaml:"webhook"`
}

type PrintConfig struct {
	BatchSize  int           `yaml:"batch_size" env:"PDFSPOOL_BATCH_SIZE"`
	BatchDelay time.Duration `yaml:"batch_delay" env:"PDFSPOOL_BATCH_DELAY"`
	MaxRetries int           `yaml:"max_retries" env:"PDFSPOOL_MAX_RETRIES"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"PDFSPOOL_RETRY_DELAY"`
}

type LogConfig struct {
	Path string `yaml:"path" env:"PDFSPOOL_LOG_PATH"`
}

type HistoryConfig struct {
	Path          string `yaml:"path" env:"PDFSPOOL_HISTORY_PATH"`
	RetentionDays int    `yaml:"retention_days" env:"PDFSPOOL_HISTORY_RETENTION_DAYS"`
}

type WebhookConfig struct {
	URL        string        `yaml:"url" env:"PDFSPOOL_WEBHOOK_URL"`
	Secret     string        `yaml:"secret" env:"PDFSPOOL_WEBHOOK_SECRET"`
	Timeout    time.Duration `yaml:"timeout" env:"PDFSPOOL_WEBHOOK_TIMEOUT"`
	RetryCount int           `yaml:"retry_count" env:"PDFSPOOL_WEBHOOK_RETRY_COUNT"`
}

func defaults() *Config {
	return &Config{
		Print: PrintConfig{
			BatchSize:  10,
			BatchDelay: 2 * time.Second,
			MaxRetries: 0,
			RetryDelay: 5 * time.Second,
		},
		Log: LogConfig{
			Path: "batch_pdf_printer.log",
		},
		History: HistoryConfig{
			Path:          "",
			RetentionDays: 90,
		},
		Webhook: WebhookConfig{
			Timeout:    10 * time.Second,
			RetryCount: 3,
		},
	}
}

// Load builds a Config from defaults, overlaid by the YAML file at
// configPath when it exists, overlaid by PDFSPOOL_* environment variables. A
// missing file is not an error; a malformed one is.
func Load(ctx context.Context, configPath string) (*Config, error) {
	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Print.BatchSize < 1 {
		return fmt.Errorf("%w, got %d", core.ErrInvalidBatchSize, c.Print.BatchSize)
	}
	if c.Print.BatchDelay < 0 {
		return ErrNegativeDelay
	}
	if c.Print.MaxRetries < 0 {
		return ErrNegativeRetries
	}
	if c.Print.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative")
	}
	if c.History.RetentionDays < 0 {
		return ErrInvalidRetention
	}
	if c.Webhook.Secret != "" && c.Webhook.URL == "" {
		return ErrWebhookURLMissing
	}
	if c.Webhook.Timeout < 0 {
		return fmt.Errorf("webhook timeout must be non-negative")
	}
	if c.Webhook.RetryCount < 0 {
		return fmt.Errorf("webhook retry count must be non-negative")
	}
	return nil
}
