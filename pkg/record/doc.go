// Package record defines the flat form of data tree nodes exchanged with a
// backend: an absolute path, a typed value and the default flag.
//
// Encode and Decode convert between tree nodes and records. Batches of
// records come from a pool and are handed back with Release once the call
// that produced them has finished.
package record
