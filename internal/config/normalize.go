package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSteam()
	c.normalizeGOGDB()
	c.normalizeMatching()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DumpDir) == "" {
		c.Paths.DumpDir = defaultDumpDir
	}
	if c.Paths.DumpDir, err = expandPath(c.Paths.DumpDir); err != nil {
		return fmt.Errorf("paths.dump_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSteam() {
	c.Steam.APIKey = strings.TrimSpace(c.Steam.APIKey)
	if c.Steam.APIKey == "" {
		if value, ok := os.LookupEnv("STEAM_API_KEY"); ok {
			c.Steam.APIKey = strings.TrimSpace(value)
		}
	}
	c.Steam.BaseURL = strings.TrimSpace(c.Steam.BaseURL)
	if c.Steam.BaseURL == "" {
		c.Steam.BaseURL = defaultSteamBaseURL
	}
	c.Steam.BaseURL = strings.TrimRight(c.Steam.BaseURL, "/")
	c.Steam.SteamID = strings.TrimSpace(c.Steam.SteamID)
	c.Steam.Vanity = strings.TrimSpace(c.Steam.Vanity)
}

func (c *Config) normalizeGOGDB() {
	c.GOGDB.BaseURL = strings.TrimSpace(c.GOGDB.BaseURL)
	if c.GOGDB.BaseURL == "" {
		c.GOGDB.BaseURL = defaultGOGDBBaseURL
	}
	c.GOGDB.BaseURL = strings.TrimRight(c.GOGDB.BaseURL, "/")
	if c.GOGDB.RequestTimeout <= 0 {
		c.GOGDB.RequestTimeout = defaultRequestTimeout
	}
	if c.GOGDB.DownloadTimeout <= 0 {
		c.GOGDB.DownloadTimeout = defaultDownloadTimeout
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.MinSubstringLen <= 0 {
		c.Matching.MinSubstringLen = defaultMinSubstringLen
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
