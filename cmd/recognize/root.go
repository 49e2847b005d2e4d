package main

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/internal/config"
	"github.com/himanishpuri/songid/internal/shim"
	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid"
	"github.com/himanishpuri/songid/pkg/songid/remote"
)

type options struct {
	configPath    string
	backend       string
	dbPath        string
	tempDir       string
	sampleRate    int
	serviceURL    string
	minConfidence float64
	exitZero      bool
}

func newRootCommand(stdout, stderr io.Writer) (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "recognize <file-path>",
		Short: "Identify the song in an audio file and print the result as JSON",
		Long: `Identify the song in an audio file (or http(s) URL) and print the result as
one JSON line on stdout. Any failure prints {"error": "<message>"} instead.

A path that begins with "-" must follow "--":

  recognize -- -clip.mp3`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var closeFn func() error
			err := shim.Run(cmd.Context(), args, stdout, func() (shim.Recognizer, error) {
				rec, c, err := opts.recognizer(cmd, stderr)
				closeFn = c
				return rec, err
			})
			if closeFn != nil {
				if cerr := closeFn(); cerr != nil {
					logger.Warnf("closing recognizer: %v", cerr)
				}
			}
			return err
		},
	}
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return shim.WriteError(stdout, err)
	})

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Configuration file path (TOML)")
	flags.StringVar(&opts.backend, "backend", "", `Recognition backend: "local" or "remote"`)
	flags.StringVar(&opts.dbPath, "db", "", "Catalog database path (local backend)")
	flags.StringVar(&opts.tempDir, "temp", "", "Directory for intermediate files")
	flags.IntVar(&opts.sampleRate, "rate", 0, "Analysis sample rate in Hz")
	flags.StringVar(&opts.serviceURL, "service-url", "", "Recognition server URL (remote backend)")
	flags.Float64Var(&opts.minConfidence, "min-confidence", 0, "Confidence (0-100) needed to report a track")
	flags.BoolVar(&opts.exitZero, "exit-zero", false, "Exit 0 even when an error document is printed")

	return cmd, opts
}

// resolveConfig layers changed flags over the loaded configuration.
func (o *options) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(strings.TrimSpace(o.configPath))
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = strings.ToLower(strings.TrimSpace(o.backend))
	}
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("temp") {
		cfg.TempDir = o.tempDir
	}
	if flags.Changed("rate") {
		cfg.SampleRate = o.sampleRate
	}
	if flags.Changed("service-url") {
		cfg.ServiceURL = strings.TrimRight(strings.TrimSpace(o.serviceURL), "/")
	}
	if flags.Changed("min-confidence") {
		cfg.MinConfidence = o.minConfidence
	}

	return cfg, cfg.Validate()
}

// recognizer builds the configured backend. The returned close func may be
// nil.
func (o *options) recognizer(cmd *cobra.Command, stderr io.Writer) (shim.Recognizer, func() error, error) {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log := logger.GetLogger()
	log.SetOutput(stderr)
	if level, err := cfg.Level(); err == nil {
		log.SetLevel(level)
	}

	switch cfg.Backend {
	case config.BackendRemote:
		client := remote.New(cfg.ServiceURL, cfg.ServiceTimeoutDuration())
		return shim.RecognizerFunc(func(ctx context.Context, path string) (any, error) {
			return client.Recognize(ctx, path)
		}), nil, nil

	default:
		svc, err := songid.NewService(
			songid.WithDBPath(cfg.DBPath),
			songid.WithTempDir(cfg.TempDir),
			songid.WithSampleRate(cfg.SampleRate),
			songid.WithMinConfidence(cfg.MinConfidence),
			songid.WithLogger(log),
		)
		if err != nil {
			return nil, nil, err
		}
		return shim.RecognizerFunc(func(ctx context.Context, path string) (any, error) {
			return svc.Recognize(ctx, path)
		}), svc.Close, nil
	}
}
