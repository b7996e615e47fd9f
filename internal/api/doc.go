// Package api defines the transport-neutral request and response shapes
// exchanged between the tailing engine and log backends.
//
// Backends translate these types to and from their SDK representations so the
// engine never imports a vendor SDK directly.
package api
