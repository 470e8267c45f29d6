// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup. Equivalent to t.Chdir, which
// requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	// No config file anywhere in the search path
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8091", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Polling.BatchSize)
	assert.Equal(t, 48, cfg.Printer.DefaultWidth)
	assert.Equal(t, "cp857", cfg.Printer.Charset)
	assert.Equal(t, "/dev/usb/lp0", cfg.Printer.DevicePath)
	assert.Equal(t, "./data/jobs.db", cfg.Store.Path)
	assert.Equal(t, 7, cfg.Store.RetentionDays)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, 256, cfg.WebSocket.SendBufferSize)
	assert.False(t, cfg.IsPaired())
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: "9000"
api:
  token: "saved-token"
app:
  environment: development
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsPaired())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.IsDebugEnabled())
	// Unset keys keep their defaults
	assert.Equal(t, 48, cfg.Printer.DefaultWidth)
}

func TestGetServerAddr(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: "8091"}}
	assert.Equal(t, "127.0.0.1:8091", cfg.GetServerAddr())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8091"},
			API:     APIConfig{BaseURL: "https://api.example.com"},
			Printer: PrinterConfig{DefaultWidth: 48},
			Polling: PollingConfig{Interval: 5e9},
			App:     AppConfig{Environment: "production"},
			Logging: LoggingConfig{Level: "info"},
		}
	}

	assert.NoError(t, validate(valid()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }},
		{"zero width", func(c *Config) { c.Printer.DefaultWidth = 0 }},
		{"zero poll interval", func(c *Config) { c.Polling.Interval = 0 }},
		{"bad environment", func(c *Config) { c.App.Environment = "prod" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, validate(cfg))
		})
	}
}
