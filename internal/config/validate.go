package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. IGDB credentials are not
// required: resolution degrades to title-only identities without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIGDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateIGDB() error {
	if c.IGDB.BaseURL == "" {
		return errors.New("igdb.base_url must be set")
	}
	if (c.IGDB.ClientID == "") != (c.IGDB.AccessToken == "") {
		return errors.New("igdb.client_id and igdb.access_token must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateLimits() error {
	if c.Dedupe.GroupLimit < 0 {
		return errors.New("dedupe.group_limit must be zero or positive")
	}
	if c.Covers.GameLimit < 0 {
		return errors.New("covers.game_limit must be zero or positive")
	}
	return nil
}
