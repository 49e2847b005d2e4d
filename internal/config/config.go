// Package config loads songid settings from defaults, an optional TOML file,
// a .env file and the environment. Command-line flags are applied by the
// binaries on top of the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/himanishpuri/songid/pkg/logger"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Server holds the HTTP recognition service settings.
type Server struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	MaxUploadMB    int      `toml:"max_upload_mb"`
}

type Config struct {
	DBPath         string  `toml:"db_path"`
	TempDir        string  `toml:"temp_dir"`
	SampleRate     int     `toml:"sample_rate"`
	Backend        string  `toml:"backend"`
	ServiceURL     string  `toml:"service_url"`
	ServiceTimeout int     `toml:"service_timeout"` // seconds
	MinConfidence  float64 `toml:"min_confidence"`
	LogLevel       string  `toml:"log_level"`
	Server         Server  `toml:"server"`
}

func Default() Config {
	return Config{
		DBPath:         "songid.sqlite3",
		TempDir:        os.TempDir(),
		SampleRate:     11025,
		Backend:        BackendLocal,
		ServiceURL:     "http://127.0.0.1:8080",
		ServiceTimeout: 30,
		MinConfidence:  20,
		LogLevel:       "info",
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    50,
		},
	}
}

// ServiceTimeoutDuration returns ServiceTimeout as a time.Duration.
func (c Config) ServiceTimeoutDuration() time.Duration {
	return time.Duration(c.ServiceTimeout) * time.Second
}

// Level resolves LogLevel to a logger level.
func (c Config) Level() (logger.LogLevel, error) {
	level, ok := logger.ParseLevel(c.LogLevel)
	if !ok {
		return logger.INFO, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return level, nil
}

// Load builds a Config. path may be empty, in which case SONGID_CONFIG is
// consulted; a missing file named only by the environment is not an error.
// A .env file in the working directory is loaded before env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("SONGID_CONFIG")
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("SONGID_DB_PATH", &cfg.DBPath)
	setString("SONGID_TEMP_DIR", &cfg.TempDir)
	setString("SONGID_BACKEND", &cfg.Backend)
	setString("SONGID_SERVICE_URL", &cfg.ServiceURL)
	setString("LOG_LEVEL", &cfg.LogLevel)

	if v := strings.TrimSpace(os.Getenv("SONGID_SAMPLE_RATE")); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SONGID_SAMPLE_RATE: %w", err)
		}
		cfg.SampleRate = rate
	}
	if v := strings.TrimSpace(os.Getenv("SONGID_MIN_CONFIDENCE")); v != "" {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SONGID_MIN_CONFIDENCE: %w", err)
		}
		cfg.MinConfidence = conf
	}
	if v := strings.TrimSpace(os.Getenv("SONGID_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SONGID_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

func (c *Config) normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.ServiceURL = strings.TrimRight(strings.TrimSpace(c.ServiceURL), "/")
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	if c.ServiceTimeout <= 0 {
		c.ServiceTimeout = 30
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 50
	}
	origins := c.Server.AllowedOrigins[:0]
	for _, o := range c.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.AllowedOrigins = origins
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("db_path is required for the local backend")
		}
	case BackendRemote:
		if c.ServiceURL == "" {
			return errors.New("service_url is required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendLocal, BackendRemote)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("min_confidence must be within [0, 100], got %g", c.MinConfidence)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}
