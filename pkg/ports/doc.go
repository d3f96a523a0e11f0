/*
Package ports defines the driven ports (interfaces) of the RPC bridge.

These interfaces decouple the coordinator from the backend that executes
operations and from where session state lives.

# Key Interfaces

  - Backend: Executes operations and actions on flattened records.
  - Registry: Accepts backend-side handler subscriptions.
  - SessionStore: Persists the datastore selector of sessions.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
