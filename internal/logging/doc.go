// Package logging assembles structured slog loggers used by the awstail CLI.
//
// It owns the console and JSON handlers, maps textual levels onto slog
// levels, and exposes context-aware helpers that tag lines with the tailed log
// group and the invocation run ID. Diagnostics default to stderr so that
// stdout carries nothing but log events. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
