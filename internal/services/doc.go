// Package services defines shared utilities consumed by the tailing engine and
// the backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the tailed log group and the invocation run
//     ID for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     configuration, timeout, or backend errors so the poll cycle can decide
//     whether a retry is allowed.
//
// Use these helpers when wiring new components so error classification and
// observability stay uniform.
package services
