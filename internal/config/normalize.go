package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeArchive()
	if err := c.normalizeLocal(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeArchive() {
	if value, ok := os.LookupEnv("NEXSCAN_BUCKET"); ok && strings.TrimSpace(value) != "" {
		c.Archive.Bucket = value
	}
	c.Archive.Bucket = strings.TrimSpace(c.Archive.Bucket)
	if c.Archive.Bucket == "" {
		c.Archive.Bucket = defaultBucket
	}
	c.Archive.Region = strings.TrimSpace(c.Archive.Region)
	if c.Archive.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(value) != "" {
			c.Archive.Region = strings.TrimSpace(value)
		} else {
			c.Archive.Region = defaultRegion
		}
	}
	c.Archive.Endpoint = strings.TrimRight(strings.TrimSpace(c.Archive.Endpoint), "/")
	c.Archive.AccessKeyID = strings.TrimSpace(c.Archive.AccessKeyID)
	c.Archive.SecretAccessKey = strings.TrimSpace(c.Archive.SecretAccessKey)
	if c.Archive.MaxRetries <= 0 {
		c.Archive.MaxRetries = defaultMaxRetries
	}
}

func (c *Config) normalizeLocal() error {
	if value, ok := os.LookupEnv("NEXSCAN_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Local.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Local.DataDir) == "" {
		c.Local.DataDir = defaultDataDir
	}
	var err error
	if c.Local.DataDir, err = expandPath(c.Local.DataDir); err != nil {
		return fmt.Errorf("local.data_dir: %w", err)
	}

	if c.Local.SkipSuffixes == nil {
		c.Local.SkipSuffixes = append([]string(nil), defaultSkipSuffixes...)
		return nil
	}
	suffixes := make([]string, 0, len(c.Local.SkipSuffixes))
	seen := make(map[string]struct{}, len(c.Local.SkipSuffixes))
	for _, suffix := range c.Local.SkipSuffixes {
		trimmed := strings.TrimSpace(suffix)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		suffixes = append(suffixes, trimmed)
	}
	c.Local.SkipSuffixes = suffixes
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		var err error
		if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}
