// Command server exposes the songid catalog and recognition over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/internal/config"
	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		port       int
		dbPath     string
		tempDir    string
		rate       int
		origins    string
	)

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the songid catalog and recognition API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(strings.TrimSpace(configPath))
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("temp") {
				cfg.TempDir = tempDir
			}
			if flags.Changed("rate") {
				cfg.SampleRate = rate
			}
			if flags.Changed("origins") {
				cfg.Server.AllowedOrigins = splitOrigins(origins)
			}
			cfg.Backend = config.BackendLocal
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.GetLogger()
			if level, err := cfg.Level(); err == nil {
				log.SetLevel(level)
			}

			service, err := songid.NewService(
				songid.WithDBPath(cfg.DBPath),
				songid.WithTempDir(cfg.TempDir),
				songid.WithSampleRate(cfg.SampleRate),
				songid.WithMinConfidence(cfg.MinConfidence),
				songid.WithLogger(log),
			)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return NewServer(service, cfg).Start(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path (TOML)")
	flags.IntVar(&port, "port", 8080, "HTTP server port (env: SONGID_PORT)")
	flags.StringVar(&dbPath, "db", "", "Catalog database path (env: SONGID_DB_PATH)")
	flags.StringVar(&tempDir, "temp", "", "Temporary directory (env: SONGID_TEMP_DIR)")
	flags.IntVar(&rate, "rate", 0, "Analysis sample rate in Hz (env: SONGID_SAMPLE_RATE)")
	flags.StringVar(&origins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")

	return cmd
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
