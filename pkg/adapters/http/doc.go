// Package http exposes the RPC bridge over HTTP with go-chi: calls, datastore
// selection, per-session event streams (SSE) and Prometheus metrics.
package http
