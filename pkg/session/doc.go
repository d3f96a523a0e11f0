/*
Package session implements client sessions and the serialisation of their calls.

A Session carries the active datastore selector an operation may switch. The
Manager keeps that selector in a ports.SessionStore between calls and makes
sure a session runs one call at a time, optionally across replicas through a
ports.DistributedLocker.
*/
package session
