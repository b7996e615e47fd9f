// Package checkpoint persists watch anchors so an interrupted tail can pick up
// where it stopped instead of re-reading its lookback window.
//
// Anchors live in a small SQLite database keyed by log group and filter
// pattern. A per-group file lock keeps two watchers from advancing the same
// anchor.
package checkpoint
