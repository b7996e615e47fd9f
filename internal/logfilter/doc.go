// Package logfilter compiles client-side CEL predicates that decide which
// fetched events are printed. Predicates run after the backend filter pattern
// and never influence where the next query starts.
//
// Expressions see these variables:
//
//	message  string  event message as received
//	stream   string  log stream name
//	ts_ms    int     event timestamp in epoch milliseconds (0 when absent)
//	has_ts   bool    whether the event carried a timestamp
//	json     dyn     the message parsed as JSON, null when it is not JSON
//
// For example: `json.level == "error" && message.contains("timeout")`.
package logfilter
