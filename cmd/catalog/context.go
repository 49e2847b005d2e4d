package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/songid/internal/config"
	"github.com/himanishpuri/songid/pkg/logger"
	"github.com/himanishpuri/songid/pkg/songid"
)

const lockRetryDelay = 250 * time.Millisecond

type commandContext struct {
	configFlag string
	dbFlag     string
	tempFlag   string
	rateFlag   int

	extra []songid.Option

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(extra []songid.Option) *commandContext {
	return &commandContext{extra: extra}
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}

		flags := cmd.Flags()
		if flags.Changed("db") {
			cfg.DBPath = c.dbFlag
		}
		if flags.Changed("temp") {
			cfg.TempDir = c.tempFlag
		}
		if flags.Changed("rate") {
			cfg.SampleRate = c.rateFlag
		}
		// the catalog is always local, whatever the shim is configured for
		cfg.Backend = config.BackendLocal

		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if level, err := cfg.Level(); err == nil {
			logger.SetLevel(level)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService opens the catalog for fn. Writers hold an exclusive lock on
// <db>.lock for the duration so concurrent adds and deletes serialise.
func (c *commandContext) withService(cmd *cobra.Command, write bool, fn func(context.Context, songid.Service) error) error {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if write {
		lock := flock.New(cfg.DBPath + ".lock")
		ok, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("acquire catalog lock: %w", err)
		}
		if !ok {
			return fmt.Errorf("catalog %s is locked by another process", cfg.DBPath)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warnf("failed to release catalog lock: %v", err)
			}
		}()
	}

	opts := []songid.Option{
		songid.WithDBPath(cfg.DBPath),
		songid.WithTempDir(cfg.TempDir),
		songid.WithSampleRate(cfg.SampleRate),
		songid.WithMinConfidence(cfg.MinConfidence),
		songid.WithLogger(logger.GetLogger()),
	}
	svc, err := songid.NewService(append(opts, c.extra...)...)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	return fn(ctx, svc)
}
