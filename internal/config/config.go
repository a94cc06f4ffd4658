// Package config loads the linq CLI configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arvarik/linq-go/linq"
)

// Config is the CLI configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Webhook WebhookConfig `yaml:"webhook"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig configures the Partner API client.
type APIConfig struct {
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxRetries  int           `yaml:"max_retries,omitempty"`
	BackoffBase time.Duration `yaml:"backoff_base,omitempty"`
	BackoffMax  time.Duration `yaml:"backoff_max,omitempty"`

	// RateLimit is the client-side request rate per second; zero disables it.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
	RateBurst int     `yaml:"rate_burst,omitempty"`
}

// WebhookConfig configures the webhook receiver.
type WebhookConfig struct {
	SigningSecret string        `yaml:"signing_secret,omitempty"`
	Addr          string        `yaml:"addr,omitempty"`
	Path          string        `yaml:"path,omitempty"`
	Workers       int           `yaml:"workers,omitempty"`
	QueueSize     int           `yaml:"queue_size,omitempty"`
	Tolerance     time.Duration `yaml:"tolerance,omitempty"`
	MetricsPath   string        `yaml:"metrics_path,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is json or text.
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://api.linqapp.com/api/partner",
			Timeout:     30 * time.Second,
			BackoffBase: 250 * time.Millisecond,
			BackoffMax:  2 * time.Second,
		},
		Webhook: WebhookConfig{
			Addr:        ":8080",
			Path:        "/linq/webhook",
			Workers:     5,
			QueueSize:   100,
			Tolerance:   linq.DefaultWebhookTolerance,
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. The file at configPath is optional; the
// environment overrides it and defaults fill whatever is left.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("config: failed to load from %s: %w", configPath, err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.API.BackoffBase == 0 {
		c.API.BackoffBase = defaults.API.BackoffBase
	}
	if c.API.BackoffMax == 0 {
		c.API.BackoffMax = defaults.API.BackoffMax
	}
	if c.API.RateLimit > 0 && c.API.RateBurst == 0 {
		c.API.RateBurst = 1
	}

	if c.Webhook.Addr == "" {
		c.Webhook.Addr = defaults.Webhook.Addr
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = defaults.Webhook.Path
	}
	if c.Webhook.Workers == 0 {
		c.Webhook.Workers = defaults.Webhook.Workers
	}
	if c.Webhook.QueueSize == 0 {
		c.Webhook.QueueSize = defaults.Webhook.QueueSize
	}
	if c.Webhook.Tolerance == 0 {
		c.Webhook.Tolerance = defaults.Webhook.Tolerance
	}
	if c.Webhook.MetricsPath == "" {
		c.Webhook.MetricsPath = defaults.Webhook.MetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv applies LINQ_* environment variables. Unlike unknown keys in
// the file, a malformed numeric or duration value is an error.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("LINQ_API_KEY"); val != "" {
		c.API.APIKey = val
	}
	if val := os.Getenv("LINQ_BASE_URL"); val != "" {
		c.API.BaseURL = val
	}
	if val := os.Getenv("LINQ_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("LINQ_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if val := os.Getenv("LINQ_MAX_RETRIES"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("LINQ_MAX_RETRIES: %w", err)
		}
		c.API.MaxRetries = n
	}
	if val := os.Getenv("LINQ_RATE_LIMIT"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("LINQ_RATE_LIMIT: %w", err)
		}
		c.API.RateLimit = f
		if c.API.RateBurst == 0 {
			c.API.RateBurst = 1
		}
	}
	if val := os.Getenv("LINQ_WEBHOOK_SECRET"); val != "" {
		c.Webhook.SigningSecret = val
	}
	if val := os.Getenv("LINQ_WEBHOOK_ADDR"); val != "" {
		c.Webhook.Addr = val
	}
	if val := os.Getenv("LINQ_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LINQ_LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	return nil
}

// Validate checks the configuration for errors. A missing API key is not an
// error here because webhook commands do not need one.
func (c *Config) Validate() error {
	var errs []string

	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("api.timeout must not be negative, got %v", c.API.Timeout))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("api.max_retries must not be negative, got %d", c.API.MaxRetries))
	}
	if c.API.BackoffBase < 0 || c.API.BackoffMax < 0 {
		errs = append(errs, "api.backoff_base and api.backoff_max must not be negative")
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("api.rate_limit must not be negative, got %v", c.API.RateLimit))
	}

	if c.Webhook.Workers < 1 {
		errs = append(errs, fmt.Sprintf("webhook.workers must be at least 1, got %d", c.Webhook.Workers))
	}
	if c.Webhook.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("webhook.queue_size must be at least 1, got %d", c.Webhook.QueueSize))
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		errs = append(errs, fmt.Sprintf("webhook.path must start with /, got %q", c.Webhook.Path))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Log.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ClientOptions renders the API section as client options.
func (c *Config) ClientOptions() []linq.Option {
	opts := []linq.Option{
		linq.WithAPIKey(c.API.APIKey),
		linq.WithBaseURL(c.API.BaseURL),
		linq.WithTimeout(c.API.Timeout),
		linq.WithMaxRetries(c.API.MaxRetries),
		linq.WithBackoffBase(c.API.BackoffBase),
		linq.WithBackoffMax(c.API.BackoffMax),
	}
	if c.API.RateLimit > 0 {
		opts = append(opts, linq.WithRateLimit(c.API.RateLimit, c.API.RateBurst))
	}
	return opts
}
