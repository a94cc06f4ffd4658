package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvarik/linq-go/linq"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api:
  api_key: file-key
  base_url: https://proxy.example.com/
  timeout: 5s
  max_retries: 3
  rate_limit: 2.5
webhook:
  signing_secret: whsec_file
  workers: 2
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.API.APIKey)
	assert.Equal(t, "https://proxy.example.com/", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, 2.5, cfg.API.RateLimit)
	assert.Equal(t, 1, cfg.API.RateBurst)
	assert.Equal(t, 250*time.Millisecond, cfg.API.BackoffBase, "unset fields fall back to defaults")
	assert.Equal(t, "whsec_file", cfg.Webhook.SigningSecret)
	assert.Equal(t, 2, cfg.Webhook.Workers)
	assert.Equal(t, 100, cfg.Webhook.QueueSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  api_key: file-key\n  max_retries: 1\n")

	t.Setenv("LINQ_API_KEY", "env-key")
	t.Setenv("LINQ_MAX_RETRIES", "4")
	t.Setenv("LINQ_TIMEOUT", "1500ms")
	t.Setenv("LINQ_WEBHOOK_SECRET", "whsec_env")
	t.Setenv("LINQ_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.APIKey)
	assert.Equal(t, 4, cfg.API.MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.API.Timeout)
	assert.Equal(t, "whsec_env", cfg.Webhook.SigningSecret)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "api: [unterminated"))
		assert.ErrorContains(t, err, "failed to parse YAML")
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("LINQ_TIMEOUT", "soon")
		_, err := Load("")
		assert.ErrorContains(t, err, "LINQ_TIMEOUT")
	})

	t.Run("bad env retries", func(t *testing.T) {
		t.Setenv("LINQ_MAX_RETRIES", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "LINQ_MAX_RETRIES")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Load(writeConfig(t, "api:\n  max_retries: -1\nlog:\n  format: xml\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.max_retries")
		assert.Contains(t, err.Error(), "log.format")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, "api.timeout"},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }, "api.rate_limit"},
		{"no workers", func(c *Config) { c.Webhook.Workers = 0 }, "webhook.workers"},
		{"relative path", func(c *Config) { c.Webhook.Path = "hook" }, "webhook.path"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestClientOptions(t *testing.T) {
	cfg := Default()
	cfg.API.APIKey = "key"
	cfg.API.BaseURL = "https://proxy.example.com/"
	cfg.API.MaxRetries = 2
	cfg.API.RateLimit = 10
	cfg.API.RateBurst = 5

	client, err := linq.NewClient(cfg.ClientOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.com", client.BaseURL())
	assert.Contains(t, client.String(), "maxRetries:2")

	cfg.API.APIKey = ""
	_, err = linq.NewClient(cfg.ClientOptions()...)
	var cfgErr *linq.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
