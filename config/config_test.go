package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1817, cfg.Web.Port)
	assert.Equal(t, "{location}_wa", cfg.Tenant.NamePrefix)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wamanager.yml")
	content := `
web:
  port: 9090
remote:
  base_url: http://remote.local/webhook/whatsapp
  timeout: 5s
tenant:
  location_id: loc-123
session:
  idle_ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.Equal(t, "http://remote.local/webhook/whatsapp", cfg.Remote.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "loc-123", cfg.Tenant.LocationID)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTTL)
	// untouched sections keep defaults
	assert.Equal(t, "{location}_wa", cfg.Tenant.NamePrefix)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"WAMANAGER_WEB_PORT":           "8088",
		"WAMANAGER_DB_ENABLED":         "true",
		"WAMANAGER_DB_TYPE":            "postgres",
		"WAMANAGER_REMOTE_TIMEOUT":     "12s",
		"WAMANAGER_TENANT_LOCATION_ID": " abc ",
		"WAMANAGER_SESSION_WORKERS":    "not-a-number",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	cfg.applyEnv(lookup)

	assert.Equal(t, 8088, cfg.Web.Port)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 12*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "abc", cfg.Tenant.LocationID)
	assert.Equal(t, 16, cfg.Session.Workers, "invalid numbers are ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{"ok", func(c *AppConfig) {}, false},
		{"missing base url", func(c *AppConfig) { c.Remote.BaseURL = " " }, true},
		{"bad port", func(c *AppConfig) { c.Web.Port = 0 }, true},
		{"bad db type", func(c *AppConfig) { c.Database.Type = "oracle" }, true},
		{"workers clamped", func(c *AppConfig) { c.Session.Workers = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Greater(t, cfg.Session.Workers, 0)
		})
	}
}
