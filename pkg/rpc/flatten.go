package rpc

import (
	"fmt"

	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/tree"
)

// Flatten encodes every explicit descendant of id as a record, in depth-first
// order. Nodes carrying the default flag are left out; the backend applies
// its own defaults. The tree is not modified.
//
// The returned batch belongs to the caller. On error nothing is returned and
// any partial batch has been released.
func Flatten(t *tree.Tree, id tree.NodeID) (*record.Batch, error) {
	if !t.Valid(id) {
		return nil, fmt.Errorf("flatten: invalid node %d", id)
	}

	batch := record.Acquire()
	for _, d := range t.Descendants(id) {
		if t.Default(d) {
			continue
		}
		rec, err := record.Encode(t, d)
		if err != nil {
			batch.Release()
			return nil, err
		}
		batch.Append(rec)
	}
	return batch, nil
}
