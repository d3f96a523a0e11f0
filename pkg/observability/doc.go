/*
Package observability provides tools for monitoring the RPC bridge.

Metrics exposes Prometheus collectors for calls, state transitions, backend
latency and HTTP requests. Its Hooks plug into rpc.Coordinator through
domain.LifecycleHooks.
*/
package observability
