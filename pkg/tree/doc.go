// Package tree implements schema-typed data trees.
//
// A Tree stores its nodes in an arena and addresses them by NodeID, so
// upward walks need no owning pointers. Besides construction and traversal
// the package provides the pieces an RPC bridge needs around a tree:
//
//   - NewPath inserts a node by absolute data path, with update semantics.
//   - Propagate maintains the default flag after an insertion.
//   - Validate checks a reply subtree against its schema.
//   - DecodeJSON and EncodeJSON translate to and from RFC 7951 style JSON,
//     honouring with-defaults reporting modes.
package tree
