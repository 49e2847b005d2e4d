package songid

import (
	"net/http"
	"os"

	"github.com/himanishpuri/songid/pkg/songid/audio"
)

type Config struct {
	DBPath        string
	TempDir       string
	SampleRate    int
	MinConfidence float64
	Logger        Logger
	Storage       Storage
	Converter     audio.Converter
	HTTPClient    *http.Client
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithMinConfidence sets the confidence (0-100) the best match needs before a
// recognition reports it as the track.
func WithMinConfidence(confidence float64) Option {
	return func(c *Config) {
		c.MinConfidence = confidence
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithConverter replaces the ffmpeg conversion step.
func WithConverter(conv audio.Converter) Option {
	return func(c *Config) {
		c.Converter = conv
	}
}

// WithHTTPClient sets the client used to download remote inputs.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:        "songid.sqlite3",
		TempDir:       os.TempDir(),
		SampleRate:    audio.DefaultSampleRate,
		MinConfidence: 20,
		Converter:     audio.ConvertToMonoWAV,
	}
}
