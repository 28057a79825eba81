package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateLocal(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateArchive() error {
	if strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive.bucket must be set")
	}
	if c.Archive.RequestTimeout < 0 {
		return errors.New("archive.request_timeout must be >= 0 (seconds, 0 disables)")
	}
	if c.Archive.MaxRetries <= 0 {
		return errors.New("archive.max_retries must be positive")
	}
	if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
		return errors.New("archive.access_key_id and archive.secret_access_key must be set together")
	}
	if c.Archive.Endpoint != "" {
		parsed, err := url.Parse(c.Archive.Endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("archive.endpoint %q must be an absolute URL", c.Archive.Endpoint)
		}
	}
	return nil
}

func (c *Config) validateLocal() error {
	if strings.TrimSpace(c.Local.DataDir) == "" {
		return errors.New("local.data_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
