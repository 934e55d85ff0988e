package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSteam(); err != nil {
		return err
	}
	if err := c.validateGOGDB(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSteam() error {
	if _, err := url.Parse(c.Steam.BaseURL); err != nil {
		return fmt.Errorf("steam.base_url: %w", err)
	}
	if c.Steam.SteamID != "" && c.Steam.Vanity != "" {
		return errors.New("steam.steam_id and steam.vanity are mutually exclusive")
	}
	return nil
}

func (c *Config) validateGOGDB() error {
	if _, err := url.Parse(c.GOGDB.BaseURL); err != nil {
		return fmt.Errorf("gogdb.base_url: %w", err)
	}
	return nil
}

// RequireSteamKey reports a helpful error when the Steam API key is missing.
// Only the export command needs the key, so it is not part of Validate.
func (c *Config) RequireSteamKey() error {
	if c.Steam.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/steamgog/config.toml"
	}
	return fmt.Errorf("steam.api_key is required. Set STEAM_API_KEY env var or edit %s (create with 'steamgog config init')", defaultPath)
}
