package tree

import "github.com/kamelat/Netopeer2/pkg/schema"

// Propagate adjusts default flags after node id was inserted into t.
//
// When wasDefault is false every default ancestor of id loses its flag, up to
// the first ancestor that is already explicit.
//
// When wasDefault is true the flag is set on the path from the deepest
// value-holding descendant of id back up to id. The walk stops at presence
// containers and keyed lists, which are never implied by their children.
// If the walk reached id, ancestors of id up to limit are marked as well as
// long as every one of their children is default. Operations and list keys
// are never marked.
func Propagate(t *Tree, id, limit NodeID, wasDefault bool) {
	if !t.Valid(id) {
		return
	}

	if !wasDefault {
		for cur := t.nodes[id].parent; cur != NoNode && t.nodes[cur].dflt; cur = t.nodes[cur].parent {
			t.nodes[cur].dflt = false
		}
		return
	}

	iter := id
	for !t.nodes[iter].schema.IsLeafish() && len(t.nodes[iter].children) > 0 {
		kids := t.nodes[iter].children
		iter = kids[len(kids)-1]
	}

	reached := false
	for ; iter != NoNode; iter = t.nodes[iter].parent {
		if boundary(t.nodes[iter].schema) {
			break
		}
		if !t.nodes[iter].schema.IsKey() {
			t.nodes[iter].dflt = true
		}
		if iter == id {
			reached = true
			break
		}
	}
	if !reached || id == limit {
		return
	}

	for cur := t.nodes[id].parent; cur != NoNode; cur = t.nodes[cur].parent {
		if boundary(t.nodes[cur].schema) || !t.allDefault(cur) {
			return
		}
		t.nodes[cur].dflt = true
		if cur == limit {
			return
		}
	}
}

func boundary(sch *schema.Node) bool {
	return sch.IsPresenceContainer() || sch.IsKeyedList() || sch.Kind == schema.KindOperation
}

func (t *Tree) allDefault(id NodeID) bool {
	for _, c := range t.nodes[id].children {
		if !t.nodes[c].dflt {
			return false
		}
	}
	return true
}

// AddDefaults materialises absent leaves that declare a default below id.
// Absent non-presence containers are created when they hold such leaves.
// Every node added this way carries the default flag.
func (t *Tree) AddDefaults(id NodeID) {
	if !t.Valid(id) {
		return
	}
	sch := t.nodes[id].schema
	if sch.IsLeafish() {
		return
	}

	for _, c := range sch.ChildNodes(t.output) {
		existing := t.ChildrenOf(id, c)
		switch c.Kind {
		case schema.KindLeaf:
			if len(existing) == 0 && c.HasDefault {
				leaf := t.alloc(c, id, c.Default)
				t.nodes[leaf].dflt = true
			}
		case schema.KindContainer:
			if len(existing) == 0 {
				if c.Presence || !hasDefaults(c) {
					continue
				}
				box := t.alloc(c, id, "")
				t.AddDefaults(box)
				t.nodes[box].dflt = true
				continue
			}
			t.AddDefaults(existing[0])
		case schema.KindList, schema.KindAction, schema.KindOperation:
			for _, e := range existing {
				t.AddDefaults(e)
			}
		}
	}
}

// hasDefaults reports whether a non-presence container would hold default leaves.
func hasDefaults(sch *schema.Node) bool {
	for _, c := range sch.Children {
		switch {
		case c.Kind == schema.KindLeaf && c.HasDefault:
			return true
		case c.Kind == schema.KindContainer && !c.Presence && hasDefaults(c):
			return true
		}
	}
	return false
}
