// Package query computes time windows, builds backend requests, and tracks the
// continuation cursor between polls.
//
// A cursor is either a pagination token, which pages within one logical query,
// or a timestamp anchor, which starts the next query once a token chain is
// exhausted. Both are modeled as variants of the sealed Cursor interface so
// callers must handle each case explicitly. Everything here is pure; I/O lives
// in the logs and logstream packages.
package query
