/*
Package domain contains the core value types shared by every layer of the RPC bridge.

It defines the datastores a session can target, the status codes a backend reports, the
error taxonomy surfaced to callers, the with-defaults reporting modes and the call state
machine. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Datastore: The configuration store a session is currently operating on.
  - Status: The result code a backend attaches to a failed call.
  - BackendError: A backend failure carrying its code, message and data path.
  - WithDefaultsMode: How default nodes are reported in a data reply.
  - Shape: Whether a call is a top-level operation or a nested action.
  - CallState: The steps a call goes through, observable via LifecycleHooks.
*/
package domain
