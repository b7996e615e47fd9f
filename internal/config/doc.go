// Package config loads, normalizes, and validates awstail configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_REGION and AWS_PROFILE. Command-line flags override what this package
// resolves; the CLI layer performs that merge.
//
// Validation failures are tagged with services.ErrConfiguration so callers can
// report them before any network call is made.
package config
