// Package main hosts the awstail CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, builds the CloudWatch Logs
// client, and hands control to the tail engine in internal/logstream. Events
// go to stdout; diagnostics go to stderr so output can be piped.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here through commands or flags.
package main
