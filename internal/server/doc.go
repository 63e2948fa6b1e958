// Package server implements the HTTP surface of the file drop: the upload
// and download routes, the error-to-status mapping, and the operational
// endpoints (/health, /ready, /live, /metrics). It wires the routes onto a
// chi router and provides lifecycle helpers used by tests and the
// production binary.
package server
