package config

import (
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIGDB()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	dataDir, err := expandPath(strings.TrimSpace(c.Paths.DataDir))
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(strings.TrimSpace(c.Paths.LogDir))
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir
	return nil
}

func (c *Config) normalizeIGDB() {
	c.IGDB.ClientID = strings.TrimSpace(c.IGDB.ClientID)
	c.IGDB.AccessToken = strings.TrimSpace(c.IGDB.AccessToken)
	c.IGDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.IGDB.BaseURL), "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
