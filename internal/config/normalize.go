package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAWS()
	c.normalizeTail()
	c.normalizeRetry()
	if err := c.normalizeCheckpoint(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeAWS() {
	c.AWS.Region = strings.ToLower(strings.TrimSpace(c.AWS.Region))
	if c.AWS.Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok && strings.TrimSpace(value) != "" {
			c.AWS.Region = strings.ToLower(strings.TrimSpace(value))
		} else if value, ok := os.LookupEnv("AWS_DEFAULT_REGION"); ok && strings.TrimSpace(value) != "" {
			c.AWS.Region = strings.ToLower(strings.TrimSpace(value))
		} else {
			c.AWS.Region = defaultRegion
		}
	}
	c.AWS.Profile = strings.TrimSpace(c.AWS.Profile)
	if c.AWS.Profile == "" {
		if value, ok := os.LookupEnv("AWS_PROFILE"); ok {
			c.AWS.Profile = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTail() {
	c.Tail.Since = strings.TrimSpace(c.Tail.Since)
	if c.Tail.Since == "" {
		c.Tail.Since = defaultSince
	}
	c.Tail.Timeout = strings.TrimSpace(c.Tail.Timeout)
	if c.Tail.Timeout == "" {
		c.Tail.Timeout = defaultTimeout
	}
	if c.Tail.PageSize == 0 {
		c.Tail.PageSize = defaultPageSize
	}
}

func (c *Config) normalizeRetry() {
	c.Retry.Backoff = strings.TrimSpace(c.Retry.Backoff)
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = defaultRetryBackoff
	}
}

func (c *Config) normalizeCheckpoint() error {
	var err error
	if strings.TrimSpace(c.Checkpoint.Dir) == "" {
		c.Checkpoint.Dir = defaultCheckpointDir
	}
	if c.Checkpoint.Dir, err = expandPath(c.Checkpoint.Dir); err != nil {
		return fmt.Errorf("checkpoint.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
