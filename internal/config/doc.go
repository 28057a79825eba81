// Package config loads, normalizes, and validates nexscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// NEXSCAN_DATA_DIR and AWS_REGION. The Config type centralizes the archive
// endpoint, the local download folder layout, and logging settings so the CLI
// discovers everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
