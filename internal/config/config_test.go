package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SONGID_CONFIG", "SONGID_DB_PATH", "SONGID_TEMP_DIR", "SONGID_BACKEND",
		"SONGID_SERVICE_URL", "SONGID_SAMPLE_RATE", "SONGID_MIN_CONFIDENCE",
		"SONGID_PORT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songid.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "songid.sqlite3", cfg.DBPath)
	assert.Equal(t, 11025, cfg.SampleRate)
	assert.Equal(t, 30*time.Second, cfg.ServiceTimeoutDuration())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
db_path = "/var/lib/songid/catalog.sqlite3"
backend = "Remote"
service_url = "http://recognizer:9000/"
min_confidence = 35.5

[server]
port = 9000
allowed_origins = ["https://a.example", " ", "https://b.example"]
`)
	t.Setenv("SONGID_SAMPLE_RATE", "22050")
	t.Setenv("SONGID_DB_PATH", "/tmp/override.sqlite3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.sqlite3", cfg.DBPath)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://recognizer:9000", cfg.ServiceURL)
	assert.Equal(t, 22050, cfg.SampleRate)
	assert.InDelta(t, 35.5, cfg.MinConfidence, 1e-9)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("SONGID_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := Load("")
	assert.NoError(t, err, "a missing file named only by SONGID_CONFIG is ignored")

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err, "an explicit missing file is an error")
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SONGID_SAMPLE_RATE", "fast")
	_, err := Load("")
	assert.ErrorContains(t, err, "SONGID_SAMPLE_RATE")

	clearEnv(t)
	_, err = Load(writeConfig(t, "sample_rate = ["))
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown backend", func(c *Config) { c.Backend = "shazam" }, "unknown backend"},
		{"remote without url", func(c *Config) { c.Backend = BackendRemote; c.ServiceURL = "" }, "service_url"},
		{"local without db", func(c *Config) { c.DBPath = " " }, "db_path"},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, "sample_rate"},
		{"confidence too high", func(c *Config) { c.MinConfidence = 101 }, "min_confidence"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
