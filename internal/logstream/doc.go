// Package logstream drives the tail loop: it pages through one query window
// until the backend stops returning tokens, then either finishes (one-shot) or
// sleeps and resumes from the last seen timestamp (watch).
//
// The cycle keeps at most one backend call in flight and observes context
// cancellation both inside the fetch and while idle. It also hosts the
// token-only pagination used to enumerate log groups.
package logstream
