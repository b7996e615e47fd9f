// Package logs issues single bounded queries against a log backend and prints
// the returned events.
//
// Fetcher performs exactly one backend call per invocation under an explicit
// timeout, sorts the batch by timestamp, hands it to the Emitter, and reports
// whether the backend returned a continuation token. It never retries; retry
// policy belongs to the poll cycle in package logstream. Failures are tagged
// with services.ErrTimeout or services.ErrBackend so callers can classify
// them.
package logs
