// Package config loads, normalizes, and validates steamgog configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the STEAM_API_KEY environment
// fallback. The Config type centralizes every knob the CLI needs, so
// downstream code always receives sanitized paths and canonical log formats.
package config
