package config

import (
	"fmt"
	"regexp"
	"strings"

	"awstail/internal/duration"
	"awstail/internal/services"
)

// regionPattern matches partition-qualified region codes such as us-east-1,
// eu-central-2, us-gov-west-1, cn-north-1, or us-isob-east-1.
var regionPattern = regexp.MustCompile(`^[a-z]{2}(-(gov|iso[a-z]?))?-[a-z]+-\d{1,2}$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := ValidateRegion(c.AWS.Region); err != nil {
		return err
	}
	if err := c.validateTail(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateRegion reports a configuration error for malformed region codes.
func ValidateRegion(region string) error {
	region = strings.TrimSpace(region)
	if region == "" {
		return invalid("aws.region must be set")
	}
	if !regionPattern.MatchString(region) {
		return invalid(fmt.Sprintf("aws.region %q is not a valid region code", region))
	}
	return nil
}

func (c *Config) validateTail() error {
	for key, value := range map[string]string{
		"tail.since":   c.Tail.Since,
		"tail.timeout": c.Tail.Timeout,
	} {
		if _, err := duration.Parse(value); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", key, "", err)
		}
	}
	if d, _ := duration.Parse(c.Tail.Timeout); d <= 0 {
		return invalid("tail.timeout must be positive")
	}
	if c.Tail.PageSize < 1 || c.Tail.PageSize > maxPageSize {
		return invalid(fmt.Sprintf("tail.page_size must be between 1 and %d", maxPageSize))
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.Attempts < 0 {
		return invalid("retry.attempts must be >= 0")
	}
	if _, err := duration.Parse(c.Retry.Backoff); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "retry.backoff", "", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return invalid(fmt.Sprintf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
}

func invalid(message string) error {
	return services.Wrap(services.ErrConfiguration, "config", "", message, nil)
}
