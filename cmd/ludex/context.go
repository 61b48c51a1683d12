package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"ludex/internal/catalog"
	"ludex/internal/config"
	"ludex/internal/dedupe"
	"ludex/internal/igdb"
	"ludex/internal/logging"
	"ludex/internal/resolve"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg)
}

// newMatcher builds the external matcher, or a degraded one when no catalog
// credentials are configured.
func (c *commandContext) newMatcher(logger *slog.Logger) (*resolve.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IGDBConfigured() {
		logger.Warn("no catalog credentials configured; titles resolve without external matching")
		return resolve.NewMatcher(nil, logger), nil
	}
	client, err := igdb.New(cfg.IGDB.ClientID, cfg.IGDB.AccessToken, cfg.IGDB.BaseURL)
	if err != nil {
		return nil, err
	}
	return resolve.NewMatcher(client, logging.WithComponent(logger, "matcher")), nil
}

// newPipeline wires the full resolution stack over one store.
func (c *commandContext) newPipeline(store *catalog.Store, logger *slog.Logger) (*resolve.GameResolver, *resolve.ReleaseMapper, *dedupe.Jobs, error) {
	matcher, err := c.newMatcher(logger)
	if err != nil {
		return nil, nil, nil, err
	}
	jobs := dedupe.NewJobs(store, logging.WithComponent(logger, "dedupe"))
	resolver := resolve.NewGameResolver(store, matcher, logging.WithComponent(logger, "resolve"))
	mapper := resolve.NewReleaseMapper(store, resolver, jobs.Merger(), logging.WithComponent(logger, "resolve"))
	return resolver, mapper, jobs, nil
}

// withLock serializes mutating batch jobs through the data-dir lock file.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire job lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another ludex job holds %s", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
