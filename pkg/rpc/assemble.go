package rpc

import (
	"fmt"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/tree"
)

// Assemble builds the reply tree for a call from the backend's output records.
//
// For an operation, base is the request and the reply is a new tree rooted at
// a copy of its operation node. For an action, base must be a private copy of
// the request envelope: the input children of the action node act are
// discarded and the output is inserted in their place, so the reply keeps the
// data path leading to the action.
//
// Each record is inserted in order and the default flags are propagated up to
// the operation or action node. The finished reply is validated. An empty
// output yields a nil tree and no error; the call is acknowledged.
//
// On error the tree Assemble created is freed. An action base is left to the
// caller.
func Assemble(shape domain.Shape, base *tree.Tree, act tree.NodeID, out *record.Batch) (*tree.Tree, error) {
	if out.Len() == 0 {
		return nil, nil
	}

	var (
		reply *tree.Tree
		root  tree.NodeID
	)
	switch shape {
	case domain.ShapeOperation:
		dup, err := base.DupShape(base.Root(), true)
		if err != nil {
			return nil, err
		}
		reply, root = dup, dup.Root()
	case domain.ShapeAction:
		if !base.Valid(act) {
			return nil, domain.ErrNoAction
		}
		base.FreeChildren(act)
		base.SetOutput(true)
		reply, root = base, act
	default:
		return nil, fmt.Errorf("unknown call shape %d", shape)
	}

	fail := func(err error) (*tree.Tree, error) {
		if shape == domain.ShapeOperation {
			reply.Free()
		}
		return nil, err
	}

	for _, rec := range out.Records {
		value, anydata, err := record.Decode(rec)
		if err != nil {
			return fail(err)
		}
		id, err := reply.NewPath(rec.Path, value, tree.PathOptions{Update: true, Anydata: anydata})
		if err != nil {
			return fail(fmt.Errorf("failed to insert %s: %w", rec.Path, err))
		}
		if id == tree.NoNode {
			// value already present and unchanged
			continue
		}
		if !within(reply, id, root) {
			return fail(fmt.Errorf("%w: %s lies outside of %s", domain.ErrConversion, rec.Path, reply.Path(root)))
		}
		tree.Propagate(reply, id, root, rec.Default)
	}

	if err := reply.Validate(root); err != nil {
		return fail(fmt.Errorf("%w: %w", domain.ErrValidation, err))
	}
	return reply, nil
}

// within reports whether id is root or one of its descendants.
func within(t *tree.Tree, id, root tree.NodeID) bool {
	for cur := id; cur != tree.NoNode; cur = t.Parent(cur) {
		if cur == root {
			return true
		}
	}
	return false
}
