package tree

import (
	"strings"

	"github.com/kamelat/Netopeer2/pkg/schema"
)

// Validate checks the subtree rooted at id against its schema: value types,
// mandatory nodes, list keys and element counts. Absent non-presence
// containers are looked through for mandatory descendants.
// It returns nil or a *schema.AggregateError.
func (t *Tree) Validate(id NodeID) error {
	if !t.Valid(id) {
		return &schema.AggregateError{Errors: []error{&schema.ValidationError{Key: "", Reason: "no such node"}}}
	}
	v := validator{t: t}
	v.node(id)
	if len(v.errs) == 0 {
		return nil
	}
	return &schema.AggregateError{Errors: v.errs}
}

type validator struct {
	t    *Tree
	errs []error
}

func (v *validator) fail(key, reason string, value any) {
	v.errs = append(v.errs, &schema.ValidationError{Key: key, Reason: reason, Value: value})
}

func (v *validator) node(id NodeID) {
	t := v.t
	sch := t.nodes[id].schema
	if sch.IsLeafish() {
		if err := schema.ValidateValue(sch, t.nodes[id].value); err != nil {
			v.fail(t.Path(id), err.Error(), t.nodes[id].value)
		}
		return
	}

	for _, c := range sch.ChildNodes(t.output) {
		inst := t.ChildrenOf(id, c)
		switch c.Kind {
		case schema.KindLeaf, schema.KindAnydata:
			if len(inst) > 1 {
				v.fail(t.Path(inst[1]), "duplicate instance", nil)
			}
			if len(inst) == 0 && c.Mandatory {
				v.fail(childPath(t.Path(id), sch, c), "missing mandatory node", nil)
			}
		case schema.KindContainer:
			if len(inst) > 1 {
				v.fail(t.Path(inst[1]), "duplicate instance", nil)
			}
			if len(inst) == 0 && !c.Presence {
				v.absent(childPath(t.Path(id), sch, c), c)
			}
		case schema.KindList, schema.KindLeafList:
			v.count(id, c, len(inst))
			if c.Kind == schema.KindList {
				v.keys(inst, c)
			} else {
				v.unique(inst)
			}
		}
		for _, n := range inst {
			v.node(n)
		}
	}
}

// absent reports mandatory nodes below a non-presence container that does not exist.
func (v *validator) absent(path string, sch *schema.Node) {
	for _, c := range sch.Children {
		p := childPath(path, sch, c)
		switch {
		case (c.Kind == schema.KindLeaf || c.Kind == schema.KindAnydata) && c.Mandatory:
			v.fail(p, "missing mandatory node", nil)
		case (c.Kind == schema.KindList || c.Kind == schema.KindLeafList) && c.MinElements > 0:
			v.fail(p, "too few elements", 0)
		case c.Kind == schema.KindContainer && !c.Presence:
			v.absent(p, c)
		}
	}
}

func (v *validator) count(parent NodeID, sch *schema.Node, n int) {
	path := childPath(v.t.Path(parent), v.t.nodes[parent].schema, sch)
	if n < sch.MinElements {
		v.fail(path, "too few elements", n)
	}
	if sch.MaxElements > 0 && n > sch.MaxElements {
		v.fail(path, "too many elements", n)
	}
}

func (v *validator) keys(entries []NodeID, sch *schema.Node) {
	if !sch.IsKeyedList() {
		return
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		parts := make([]string, 0, len(sch.Keys))
		complete := true
		for _, k := range sch.Keys {
			kid := v.t.keyChild(e, k)
			if kid == NoNode {
				v.fail(v.t.Path(e), "missing list key "+k, nil)
				complete = false
				continue
			}
			parts = append(parts, v.t.nodes[kid].value)
		}
		if !complete {
			continue
		}
		tuple := strings.Join(parts, "\x00")
		if seen[tuple] {
			v.fail(v.t.Path(e), "duplicate list entry", nil)
		}
		seen[tuple] = true
	}
}

func (v *validator) unique(values []NodeID) {
	seen := make(map[string]bool, len(values))
	for _, id := range values {
		val := v.t.nodes[id].value
		if seen[val] {
			v.fail(v.t.Path(id), "duplicate leaf-list value", val)
		}
		seen[val] = true
	}
}

func childPath(parentPath string, parent, child *schema.Node) string {
	if child.Module != parent.Module {
		return parentPath + "/" + child.QName()
	}
	return parentPath + "/" + child.Name
}
